package consul

import (
	"fmt"
	"os"

	"crisis-service/config"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type ConsulConn struct {
	logger    *zap.SugaredLogger
	cfg       *config.Config
	client    *consulapi.Client
	serviceID string
}

func NewConsulConn(logger *zap.SugaredLogger, cfg *config.Config) *ConsulConn {
	return &ConsulConn{logger: logger, cfg: cfg}
}

// Connect registers the service with the local Consul agent. A missing
// CONSUL_ADDR disables registration so the service can run standalone.
func (c *ConsulConn) Connect() *consulapi.Client {
	if c.cfg.ConsulAddr == "" {
		c.logger.Info("Consul registration disabled")
		return nil
	}

	consulCfg := consulapi.DefaultConfig()
	consulCfg.Address = c.cfg.ConsulAddr

	client, err := consulapi.NewClient(consulCfg)
	if err != nil {
		c.logger.Errorf("Failed to create consul client: %v", err)
		return nil
	}
	c.client = client

	hostname, _ := os.Hostname()
	c.serviceID = fmt.Sprintf("%s-%s", c.cfg.ServiceName, hostname)

	registration := &consulapi.AgentServiceRegistration{
		ID:   c.serviceID,
		Name: c.cfg.ServiceName,
		Port: atoiOr(c.cfg.Port, 8080),
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%s/health", hostname, c.cfg.Port),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		c.logger.Errorf("Failed to register service with consul: %v", err)
		return client
	}

	c.logger.Infof("Registered service %s with consul", c.serviceID)
	return client
}

func (c *ConsulConn) Deregister() {
	if c.client == nil || c.serviceID == "" {
		return
	}
	if err := c.client.Agent().ServiceDeregister(c.serviceID); err != nil {
		c.logger.Errorf("Failed to deregister service: %v", err)
	}
}

func atoiOr(s string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return fallback
	}
	return n
}
