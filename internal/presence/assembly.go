package presence

import (
	"fmt"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/objcache"
)

// MethodHandler builds the presence sensor for one method entry of the fan
// at fanIndex.
type MethodHandler func(fanIndex int, cfg MethodConfig) (PresenceSensor, error)

// PolicyHandler builds the redundancy policy of a fan from its record.
type PolicyHandler func(rec *FanRecord) (RedundancyPolicy, error)

// Assembler turns fan declarations into records and policies, dispatching on
// the lower-cased method and policy type strings.
type Assembler struct {
	methods  map[string]MethodHandler
	policies map[string]PolicyHandler
}

// NewAssembler creates an assembler with the tach and gpio methods and the
// anyof and fallback policies registered.
func NewAssembler(cache PropertyReader, lines LineReader) *Assembler {
	a := &Assembler{
		methods:  make(map[string]MethodHandler),
		policies: make(map[string]PolicyHandler),
	}

	a.RegisterMethod("tach", func(_ int, cfg MethodConfig) (PresenceSensor, error) {
		sensors, err := cfg.Strings("sensors")
		if err != nil {
			return nil, err
		}
		return NewTach(sensors, cache), nil
	})

	a.RegisterMethod("gpio", func(_ int, cfg MethodConfig) (PresenceSensor, error) {
		physpath, err := cfg.String("physpath")
		if err != nil {
			return nil, err
		}
		devpath, err := cfg.String("devpath")
		if err != nil {
			return nil, err
		}
		key, err := cfg.Uint("key")
		if err != nil {
			return nil, err
		}
		asserted, err := cfg.UintOr("asserted", 1)
		if err != nil {
			return nil, err
		}
		return NewGpio(physpath, devpath, key, int(asserted), lines), nil
	})

	a.RegisterPolicy("anyof", func(rec *FanRecord) (RedundancyPolicy, error) {
		return NewAnyOf(rec), nil
	})
	a.RegisterPolicy("fallback", func(rec *FanRecord) (RedundancyPolicy, error) {
		return NewFallback(rec), nil
	})

	return a
}

// RegisterMethod adds or replaces the handler for a method type.
func (a *Assembler) RegisterMethod(typ string, h MethodHandler) {
	a.methods[typ] = h
}

// RegisterPolicy adds or replaces the handler for a policy type.
func (a *Assembler) RegisterPolicy(typ string, h PolicyHandler) {
	a.policies[typ] = h
}

// Engine holds every fan record and the policy observing it.
type Engine struct {
	records  []FanRecord
	policies []RedundancyPolicy
}

// Policies returns one policy per declared fan, in declaration order.
func (e *Engine) Policies() []RedundancyPolicy {
	return e.policies
}

// Records returns the fan records.
func (e *Engine) Records() []FanRecord {
	return e.records
}

// Objects returns every cached property read by the engine's sensors.
func (e *Engine) Objects() []objcache.Object {
	var objs []objcache.Object
	for _, rec := range e.records {
		for _, s := range rec.Sensors {
			if w, ok := s.(interface{ Objects() []objcache.Object }); ok {
				objs = append(objs, w.Objects()...)
			}
		}
	}
	return objs
}

// Assemble builds an engine from decls. Any error fails the whole set.
func (a *Assembler) Assemble(decls []FanDeclaration) (*Engine, error) {
	// Policies point into records, so records is sized once here and never
	// appended past len(decls).
	records := make([]FanRecord, 0, len(decls))
	policies := make([]RedundancyPolicy, 0, len(decls))

	for i, decl := range decls {
		sensors, err := a.buildSensors(i, decl)
		if err != nil {
			return nil, err
		}

		records = append(records, FanRecord{
			Identity: FanIdentity{Name: decl.Name, Path: decl.Path},
			Sensors:  sensors,
		})

		policy, err := a.buildPolicy(&records[len(records)-1], decl)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	return &Engine{records: records, policies: policies}, nil
}

func (a *Assembler) buildSensors(fanIndex int, decl FanDeclaration) ([]PresenceSensor, error) {
	errFactory := errors.New()

	sensors := make([]PresenceSensor, 0, len(decl.Methods))
	for _, m := range decl.Methods {
		typ, ok := m.Type()
		if !ok {
			return nil, errFactory.WithData(ErrMissingMethodType, decl.Name)
		}

		handler, ok := a.methods[typ]
		if !ok {
			return nil, errFactory.WithData(ErrUnknownMethod, fmt.Sprintf("%s: %s", decl.Name, typ))
		}

		s, err := handler(fanIndex, m)
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidField, err).
				WithMessage(fmt.Sprintf("invalid %s method for fan %s", typ, decl.Name))
		}
		if s != nil {
			sensors = append(sensors, s)
		}
	}

	return sensors, nil
}

func (a *Assembler) buildPolicy(rec *FanRecord, decl FanDeclaration) (RedundancyPolicy, error) {
	errFactory := errors.New()

	typ, ok := decl.RPolicy.Type()
	if !ok {
		return nil, errFactory.WithData(ErrMissingPolicyType, decl.Name)
	}

	handler, ok := a.policies[typ]
	if !ok {
		return nil, errFactory.WithData(ErrUnknownPolicy, fmt.Sprintf("%s: %s", decl.Name, typ))
	}

	policy, err := handler(rec)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, errFactory.WithData(ErrUnknownPolicy, fmt.Sprintf("%s: %s", decl.Name, typ))
	}
	return policy, nil
}
