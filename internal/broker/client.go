package broker

import (
	"crypto/tls"
	"strings"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout       = 5 * time.Second
	defaultKeepAlive            = 30 * time.Second
	defaultPingTimeout          = 10 * time.Second
	defaultWriteTimeout         = 5 * time.Second
	defaultMaxReconnectInterval = time.Minute
	defaultConnectRetryInterval = 5 * time.Second
)

// Client is the part of an MQTT client used by fanmon.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

type Options struct {
	ConnectionLostHandler mqtt.ConnectionLostHandler
	OnConnectHandler      mqtt.OnConnectHandler
	CleanSession          bool
	AutoReconnect         bool
	ConnectRetry          bool
	ResumeSubs            bool
	TLSInsecureSkip       bool
	WriteTimeout          time.Duration
	KeepAlive             time.Duration
	PingTimeout           time.Duration
	MaxReconnectInterval  time.Duration
	ConnectTimeout        time.Duration
	ConnectRetryInterval  time.Duration
	TLSConfig             *tls.Config
}

type Option func(*Options)

func WithConnectionLostHandler(h mqtt.ConnectionLostHandler) Option {
	return func(o *Options) { o.ConnectionLostHandler = h }
}

func WithOnConnectHandler(h mqtt.OnConnectHandler) Option {
	return func(o *Options) { o.OnConnectHandler = h }
}

func WithCleanSession(v bool) Option {
	return func(o *Options) { o.CleanSession = v }
}

func WithAutoReconnect(v bool) Option {
	return func(o *Options) { o.AutoReconnect = v }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func WithKeepAlive(d time.Duration) Option {
	return func(o *Options) { o.KeepAlive = d }
}

func WithTLSInsecureSkipVerify(v bool) Option {
	return func(o *Options) { o.TLSInsecureSkip = v }
}

func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *Options) { o.TLSConfig = cfg }
}

func defaultOptions() Options {
	log := logger.Component("broker")
	return Options{
		ConnectionLostHandler: func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost")
		},
		OnConnectHandler: func(_ mqtt.Client) {
			log.Info().Msg("MQTT connected")
		},
		CleanSession:         true,
		AutoReconnect:        true,
		ConnectRetry:         true,
		ResumeSubs:           true,
		WriteTimeout:         defaultWriteTimeout,
		KeepAlive:            defaultKeepAlive,
		PingTimeout:          defaultPingTimeout,
		MaxReconnectInterval: defaultMaxReconnectInterval,
		ConnectTimeout:       defaultConnectTimeout,
		ConnectRetryInterval: defaultConnectRetryInterval,
	}
}

func isSecureScheme(u string) bool {
	s := strings.ToLower(u)
	return strings.HasPrefix(s, "mqtts://") || strings.HasPrefix(s, "ssl://") ||
		strings.HasPrefix(s, "tls://") || strings.HasPrefix(s, "wss://")
}

// ClientOptions builds the paho options for endpoint.
func ClientOptions(endpoint, clientID string, optFns ...Option) (*mqtt.ClientOptions, Options) {
	conf := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&conf)
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(endpoint).
		SetClientID(clientID).
		SetConnectionLostHandler(conf.ConnectionLostHandler).
		SetOnConnectHandler(conf.OnConnectHandler).
		SetCleanSession(conf.CleanSession).
		SetAutoReconnect(conf.AutoReconnect).
		SetConnectRetry(conf.ConnectRetry).
		SetConnectRetryInterval(conf.ConnectRetryInterval).
		SetMaxReconnectInterval(conf.MaxReconnectInterval).
		SetWriteTimeout(conf.WriteTimeout).
		SetKeepAlive(conf.KeepAlive).
		SetPingTimeout(conf.PingTimeout).
		SetResumeSubs(conf.ResumeSubs).
		SetConnectTimeout(conf.ConnectTimeout)

	if conf.TLSConfig != nil {
		opts.SetTLSConfig(conf.TLSConfig)
	} else if isSecureScheme(endpoint) {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: conf.TLSInsecureSkip}) // #nosec G402
	}

	return opts, conf
}

// Connect creates an MQTT client and waits up to the connect timeout for
// the first connection.
func Connect(endpoint, clientID string, optFns ...Option) (mqtt.Client, error) {
	errFactory := errors.New()

	opts, conf := ClientOptions(endpoint, clientID, optFns...)
	c := mqtt.NewClient(opts)

	tok := c.Connect()
	if !tok.WaitTimeout(conf.ConnectTimeout) {
		c.Disconnect(0)
		return nil, errFactory.WithData(ErrConnectTimeout, endpoint)
	}
	if err := tok.Error(); err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	return c, nil
}
