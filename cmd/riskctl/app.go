package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/RiskRater/internal/api"
	"github.com/MikeSquared-Agency/RiskRater/internal/client"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
)

func newApp() *cli.Command {
	var server string

	return &cli.Command{
		Name:  "riskctl",
		Usage: "Rate vulnerabilities with the OWASP risk rating methodology",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "riskrater API base URL",
				Sources:     cli.EnvVars("RISKRATER_SERVER"),
				Value:       "http://localhost:5000",
				Destination: &server,
			},
		},
		Commands: []*cli.Command{
			cmdScore(&server),
			cmdMatrices(&server),
			cmdHistory(&server),
			cmdChat(&server),
		},
	}
}

func cmdScore(server *string) *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Compute a risk rating from factor ratings",
		ArgsUsage: "[factor=value ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "YAML or JSON file of factor ratings"},
			&cli.BoolFlag{Name: "weight-motive", Usage: "apply the multiplier to motive"},
			&cli.BoolFlag{Name: "weight-financial", Usage: "apply the multiplier to financial damage"},
			&cli.StringFlag{Name: "matrix", Usage: "risk matrix name (server default when empty)"},
			&cli.StringFlag{Name: "save", Usage: "save the result under this vulnerability name"},
			&cli.BoolFlag{Name: "json", Usage: "print the raw JSON result"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			factors, err := loadFactors(c.String("file"), c.Args().Slice())
			if err != nil {
				return err
			}
			hc := client.NewHTTPClient(*server)
			res, err := hc.Score(ctx, api.ScoreRequest{
				Factors: factors,
				Weights: scoring.WeightFlags{
					WeightMotive:    c.Bool("weight-motive"),
					WeightFinancial: c.Bool("weight-financial"),
				},
				Matrix: c.String("matrix"),
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if c.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printScore(w, res)
			}

			if name := c.String("save"); name != "" {
				if err := hc.Save(ctx, client.SaveRequestFor(name, res.ScoreResult)); err != nil {
					return err
				}
				fmt.Fprintf(w, "saved %q\n", name)
			}
			return nil
		},
	}
}

// loadFactors merges ratings from an optional file with name=value arguments.
// Arguments win over the file.
func loadFactors(path string, args []string) (map[string]any, error) {
	factors := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read factors: %w", err)
		}
		if err := yaml.Unmarshal(data, &factors); err != nil {
			return nil, fmt.Errorf("parse factors: %w", err)
		}
	}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected factor=value, got %q", arg)
		}
		factors[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return factors, nil
}

func printScore(w io.Writer, res *api.ScoreResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Likelihood\t%.3f\t%s\n", res.Likelihood.Average, res.Likelihood.Level)
	fmt.Fprintf(tw, "Impact\t%.3f\t%s\n", res.Impact.Average, res.Impact.Level)
	for i, label := range res.Chart.Labels {
		fmt.Fprintf(tw, "  %s\t%.3f\t\n", label, res.Chart.Values[i])
	}
	fmt.Fprintf(tw, "Overall\t%s\t(%s matrix)\n", res.Category, res.Matrix)
	tw.Flush()
}

func cmdMatrices(server *string) *cli.Command {
	return &cli.Command{
		Name:  "matrices",
		Usage: "List the risk matrices the server knows",
		Action: func(ctx context.Context, c *cli.Command) error {
			out, err := client.NewHTTPClient(*server).Matrices(ctx)
			if err != nil {
				return err
			}
			w := c.Root().Writer
			for _, m := range out.Matrices {
				marker := ""
				if m.Name == out.Default {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s%s\n", m.Name, marker)
				for i, row := range m.Cells {
					fmt.Fprintf(w, "  %-6s  %-8s %-8s %-8s\n", []string{"High", "Medium", "Low"}[i], row[0], row[1], row[2])
				}
			}
			return nil
		},
	}
}

func cmdHistory(server *string) *cli.Command {
	var (
		limit      int
		likelihood float64
		impact     float64
	)

	return &cli.Command{
		Name:  "history",
		Usage: "Manage saved assessments",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved assessments, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "show at most this many", Destination: &limit},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					items, err := client.NewHTTPClient(*server).History(ctx, limit)
					if err != nil {
						return err
					}
					w := c.Root().Writer
					if len(items) == 0 {
						fmt.Fprintln(w, "no saved assessments")
						return nil
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "DATE\tNAME\tFINAL\tLIKELIHOOD\tIMPACT\tWEIGHTED")
					for _, it := range items {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%d\n",
							it.DateSaved.Format("2006-01-02 15:04"), it.Name, it.FinalScore, it.Likelihood, it.Impact, it.Weighted)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "save",
				Usage: "Save an already computed assessment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "final", Required: true, Usage: "final score label"},
					&cli.FloatFlag{Name: "likelihood", Required: true, Destination: &likelihood},
					&cli.FloatFlag{Name: "impact", Required: true, Destination: &impact},
					&cli.BoolFlag{Name: "weighted"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					req := client.SaveRequest{
						Name:       c.String("name"),
						FinalScore: c.String("final"),
						Likelihood: likelihood,
						Impact:     impact,
					}
					if c.Bool("weighted") {
						req.Weighted = 1
					}
					if err := client.NewHTTPClient(*server).Save(ctx, req); err != nil {
						return err
					}
					fmt.Fprintf(c.Root().Writer, "saved %q\n", req.Name)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every saved assessment",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "skip the safety check"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if !c.Bool("yes") {
						return fmt.Errorf("refusing to clear history without --yes")
					}
					if err := client.NewHTTPClient(*server).Clear(ctx); err != nil {
						return err
					}
					fmt.Fprintln(c.Root().Writer, "history cleared")
					return nil
				},
			},
		},
	}
}

func cmdChat(server *string) *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Ask the assistant about risk ratings or saved assessments",
		ArgsUsage: "message",
		Action: func(ctx context.Context, c *cli.Command) error {
			msg := strings.Join(c.Args().Slice(), " ")
			out, err := client.NewHTTPClient(*server).Chat(ctx, msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, out)
			return nil
		},
	}
}
