package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	logpkg "github.com/kailas-cloud/ekn/internal/logger"
	chiTransport "github.com/kailas-cloud/ekn/internal/transport/chi"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a content object, following redirects",
		ArgsUsage: "<ekn://domain/hash>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "content", Usage: "Write the content stream instead of the metadata"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("exactly one content id is required")
			}
			id, err := ekn.Parse(c.Args().First())
			if err != nil {
				return err
			}

			cfg, _, err := loadConfig(c)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logpkg.NewCLI(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			ctx = logpkg.ContextWithLogger(ctx, logger)

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.engine.GetObjectByID(ctx, id)
			if err != nil {
				return err
			}
			logger.Debug("Resolved object", zap.Stringer("requested", id), zap.Stringer("resolved", m.ID()))

			if c.Bool("content") {
				rc, _, err := m.Open(ctx)
				if err != nil {
					return err
				}
				defer rc.Close()
				_, err = io.Copy(os.Stdout, rc)
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(chiTransport.ModelToResponse(m))
		},
	}
}
