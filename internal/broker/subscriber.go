package broker

import (
	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/objcache"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const qosAtLeastOnce = 1

// Poster runs fn on the event loop goroutine.
type Poster interface {
	Post(fn func())
}

// Subscriber feeds property signals received from the broker into the
// property cache, through the event loop.
type Subscriber struct {
	client Client
	topic  string
	loop   Poster
	router *objcache.Router
	log    logger.Logger
}

// NewSubscriber creates a subscriber for signals published under
// <prefix>/signals/#.
func NewSubscriber(client Client, prefix string, loop Poster, router *objcache.Router) *Subscriber {
	return &Subscriber{
		client: client,
		topic:  prefix + "/signals/#",
		loop:   loop,
		router: router,
		log:    logger.Component("broker"),
	}
}

// Topic returns the subscription filter.
func (s *Subscriber) Topic() string {
	return s.topic
}

// Start subscribes to the signal topic.
func (s *Subscriber) Start() error {
	tok := s.client.Subscribe(s.topic, qosAtLeastOnce, s.onMessage)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return errors.New().Wrap(ErrSubscribeFailed, err)
	}
	s.log.Info().Str("topic", s.topic).Msg("Subscribed to property signals")
	return nil
}

// Stop unsubscribes.
func (s *Subscriber) Stop() {
	s.client.Unsubscribe(s.topic).Wait()
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := s.HandlePayload(msg.Payload()); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropped signal")
	}
}

// HandlePayload decodes one signal envelope and queues the cache update on
// the event loop.
func (s *Subscriber) HandlePayload(data []byte) error {
	env, err := Decode(data)
	if err != nil {
		return err
	}

	switch env.Kind {
	case KindPropertiesChanged:
		var msg objcache.PropertiesChangedMsg
		if err := env.DecodeBody(&msg); err != nil {
			return err
		}
		path := env.Path
		s.loop.Post(func() {
			if s.router.PropertiesChanged(path, msg) == 0 {
				s.log.Debug().Str("path", path).Str("interface", msg.Interface).Msg("Signal matched no watched property")
			}
		})
	case KindInterfacesAdded:
		var msg objcache.InterfacesAddedMsg
		if err := env.DecodeBody(&msg); err != nil {
			return err
		}
		if msg.Path == "" {
			msg.Path = env.Path
		}
		s.loop.Post(func() {
			s.router.InterfacesAdded(msg)
		})
	default:
		return errors.New().WithData(ErrUnknownKind, env.Kind)
	}

	return nil
}
