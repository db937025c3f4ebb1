// seed_history.go scores a YAML file of assessments through a riskrater server
// and saves every result the save policy accepts.
//
// Usage:
//
//	go run scripts/seed_history.go -file testdata/assessments.yaml -api http://localhost:5000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/RiskRater/internal/api"
	"github.com/MikeSquared-Agency/RiskRater/internal/client"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
)

type seedFile struct {
	Assessments []seedAssessment `yaml:"assessments"`
}

type seedAssessment struct {
	Name    string              `yaml:"name"`
	Matrix  string              `yaml:"matrix"`
	Weights scoring.WeightFlags `yaml:"weights"`
	Factors map[string]any      `yaml:"factors"`
}

func main() {
	path := flag.String("file", "assessments.yaml", "path to the seed YAML file")
	apiURL := flag.String("api", "http://localhost:5000", "riskrater API base URL")
	dryRun := flag.Bool("dry-run", false, "score without saving")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}
	log.Printf("parsed %d assessments from %s", len(seed.Assessments), *path)

	ctx := context.Background()
	hc := client.NewHTTPClient(*apiURL)
	saved, skipped := 0, 0
	for _, a := range seed.Assessments {
		res, err := hc.Score(ctx, api.ScoreRequest{Factors: a.Factors, Weights: a.Weights, Matrix: a.Matrix})
		if err != nil {
			log.Printf("skip %q: %v", a.Name, err)
			skipped++
			continue
		}
		if *dryRun {
			fmt.Printf("%s: %s (likelihood %.3f, impact %.3f)\n", a.Name, res.Category, res.Likelihood.Average, res.Impact.Average)
			continue
		}
		if res.Category == scoring.CategoryNote {
			log.Printf("skip %q: Note ratings are not saved", a.Name)
			skipped++
			continue
		}

		err = hc.Save(ctx, client.SaveRequestFor(a.Name, res.ScoreResult))
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr):
			log.Printf("skip %q: %s", a.Name, apiErr.Message)
			skipped++
		case err != nil:
			log.Printf("skip %q: %v", a.Name, err)
			skipped++
		default:
			saved++
		}
	}

	log.Printf("done: %d saved, %d skipped", saved, skipped)
}
