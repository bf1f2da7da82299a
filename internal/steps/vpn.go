package steps

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
)

// ConnectVPN brings up the OpenVPN tunnel to the warehouse network and
// verifies MySQL is reachable through it. With SKIP_VPN set the tunnel is
// skipped and the database is dialed directly.
func (r *Runtime) ConnectVPN(ctx context.Context, pc *domain.PipelineContext) (*domain.StepOutcome, error) {
	if r.cfg.SkipVPN {
		r.logger.Info("VPN skipped, connecting to MySQL directly")
	} else {
		r.logger.Info("spawning OpenVPN client",
			logger.String("config", r.cfg.VPNConfigFile))

		vpn := exec.Command("openvpn",
			"--config", r.cfg.VPNConfigFile,
			"--log", filepath.Join("logs", "vpn.log"))
		if err := vpn.Start(); err != nil {
			return nil, fmt.Errorf("failed to start openvpn: %w", err)
		}
		pc.Connections.VPN = vpn

		// Give the tunnel time to come up before dialing through it
		select {
		case <-time.After(7 * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		r.logger.Info("VPN connection established")
	}

	pc.Connections.MySQL = r.db
	if err := r.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("MySQL unreachable: %w", err)
	}

	r.logger.Info("MySQL connected",
		logger.String("database", r.cfg.MySQLDatabase))
	return nil, nil
}

// DisconnectVPN tears down the tunnel spawned by ConnectVPN. The MySQL pool
// is shared across runs and stays open.
func (r *Runtime) DisconnectVPN(ctx context.Context, pc *domain.PipelineContext) error {
	if r.cfg.SkipVPN || pc.Connections.VPN == nil {
		r.logger.Info("passthrough mode, no VPN process to disconnect")
		return nil
	}

	if err := pc.Connections.VPN.Process.Signal(syscall.SIGTERM); err != nil {
		r.logger.Warn("failed to signal VPN process", logger.Error(err))
		return err
	}
	pc.Connections.VPN = nil

	r.logger.Info("VPN disconnected")
	return nil
}
