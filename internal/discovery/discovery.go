// Package discovery advertises the status page over mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/rs/zerolog"
)

// DefaultService is the DNS-SD service type for the status page.
const DefaultService = "_drivetimer._tcp"

// DefaultTTL is the record TTL announced for the service.
const DefaultTTL = 120 * time.Second

// Config describes the service to announce.
type Config struct {
	Instance string
	Service  string
	Domain   string
	Port     int
	Version  string
	TTL      time.Duration
}

type server interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (server, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (server, error) {
	srv, err := zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// Advertiser registers and withdraws the mDNS service.
type Advertiser struct {
	cfg      Config
	logger   zerolog.Logger
	register registerFunc

	mu     sync.Mutex
	server server
}

// New creates an Advertiser. An empty instance name defaults to the hostname.
func New(cfg Config, logger zerolog.Logger) *Advertiser {
	if cfg.Instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "drive-timer"
		}
		cfg.Instance = host
	}
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.Domain == "" {
		cfg.Domain = "local."
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Advertiser{
		cfg:      cfg,
		logger:   logger.With().Str("component", "discovery").Logger(),
		register: zeroconfRegister,
	}
}

// TXT returns the TXT records announced with the service.
func (a *Advertiser) TXT() []string {
	txt := []string{"path=/", "json=/index.json"}
	if a.cfg.Version != "" {
		txt = append(txt, "version="+a.cfg.Version)
	}
	return txt
}

// Advertise registers the service, replacing any previous registration.
func (a *Advertiser) Advertise(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.cfg.Port <= 0 || a.cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", a.cfg.Port)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	srv, err := a.register(a.cfg.Instance, a.cfg.Service, a.cfg.Domain, a.cfg.Port, a.TXT(), nil,
		zeroconf.TTL(uint32(a.cfg.TTL.Seconds())))
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", a.cfg.Service, err)
	}
	a.server = srv

	a.logger.Info().
		Str("instance", a.cfg.Instance).
		Str("service", a.cfg.Service).
		Int("port", a.cfg.Port).
		Msg("advertising status page")
	return nil
}

// Shutdown withdraws the service. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.logger.Info().Msg("advertisement withdrawn")
	}
}

// PortFromAddr extracts the TCP port from a listen address such as ":80".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", p, err)
	}
	return port, nil
}
