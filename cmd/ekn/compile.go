package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/ekn/internal/domain/search/query"
)

type compileOutput struct {
	Query    string `json:"query"`
	Cutoff   int    `json:"cutoff"`
	SortBy   *int   `json:"sort_by,omitempty"`
	Order    string `json:"order"`
	Collapse int    `json:"collapse"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Print the backend query compiled from a search request",
		Flags: append(requestFlags(),
			&cli.BoolFlag{Name: "with-denylist", Usage: "Apply the configured denylist"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			req, err := requestFromFlags(c)
			if err != nil {
				return err
			}

			denylist := query.Denylist{}
			if c.Bool("with-denylist") {
				cfg, _, err := loadConfig(c)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				denylist = query.NewDenylist(cfg.Denylist)
			}

			compiled, err := query.NewCompiler(denylist).Compile(req)
			if err != nil {
				return err
			}

			out := compileOutput{
				Query:    compiled.Query,
				Cutoff:   compiled.Cutoff,
				Order:    compiled.Order.String(),
				Collapse: compiled.CollapseValue,
				Offset:   compiled.Offset,
				Limit:    compiled.Limit,
			}
			if compiled.HasSort {
				out.SortBy = &compiled.SortValue
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
