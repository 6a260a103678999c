package inventory

import (
	"time"

	"codeberg.org/mutker/fanmon/internal/broker"
	"codeberg.org/mutker/fanmon/internal/logger"
)

const qosAtLeastOnce = 1

// FunctionalUpdate is the body of a functional envelope.
type FunctionalUpdate struct {
	Functional bool      `cbor:"functional"`
	Time       time.Time `cbor:"time"`
}

// PresenceUpdate is the body of a presence envelope.
type PresenceUpdate struct {
	Name    string    `cbor:"name"`
	Present bool      `cbor:"present"`
	Time    time.Time `cbor:"time"`
}

// Publisher publishes inventory updates to the broker as retained CBOR
// envelopes under <prefix>/inventory/<kind><path>. Publishing never waits
// for delivery.
type Publisher struct {
	client broker.Client
	prefix string
	log    logger.Logger
	now    func() time.Time
}

func NewPublisher(client broker.Client, prefix string) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		log:    logger.Component("inventory"),
		now:    time.Now,
	}
}

func (p *Publisher) UpdateFunctional(path string, functional bool) {
	p.publish(broker.KindFunctional, path, FunctionalUpdate{
		Functional: functional,
		Time:       p.now().UTC(),
	})
}

func (p *Publisher) UpdatePresence(path, name string, present bool) {
	p.publish(broker.KindPresence, path, PresenceUpdate{
		Name:    name,
		Present: present,
		Time:    p.now().UTC(),
	})
}

// Topic returns the topic an update of kind for path is published on.
func (p *Publisher) Topic(kind, path string) string {
	return p.prefix + "/inventory/" + kind + path
}

func (p *Publisher) publish(kind, path string, body any) {
	payload, err := broker.Encode(kind, path, body)
	if err != nil {
		p.log.Error().Err(err).Str("path", path).Msg("Failed to encode inventory update")
		return
	}

	topic := p.Topic(kind, path)
	tok := p.client.Publish(topic, qosAtLeastOnce, true, payload)
	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			p.log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish inventory update")
		}
	}()
}
