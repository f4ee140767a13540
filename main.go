/*
clonetree samples posterior distributions over clone trees: rooted trees
describing the ancestor/descendant structure of tumor-cell mutation
clusters, inferred from pairwise relation probabilities and aggregated read
counts.

usage: clonetree [ -t <trees> | -p <n> | -debug ] -c <config> -i <input> -o <output>

flags:

	-c path
	  	run configuration (YAML)
	-i path
	  	input data (JSON): relation model, variants, clusters
	-o path
	  	output samples (JSON)
	-t path
	  	score fixed tree topologies from this JSON file instead of sampling
	-p int
	  	override the configured parallelism degree
	-debug
	  	verbose logging

example:

	clonetree -c run.yaml -i cohort.json -o trees.json 2> log.txt
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"clonetree/config"
	"clonetree/mutrel"
	"clonetree/sampler"
	"clonetree/variants"
)

type inputData struct {
	// Mutrel is the (K-1) x (K-1) x 5 pairwise relation probability array.
	Mutrel [][][]float64 `json:"mutrel"`
	// Clusters lists, per mutation cluster, the indices of its variants.
	Clusters [][]int `json:"clusters"`
	// Variants are the raw per-mutation read counts.
	Variants []inputVariant `json:"variants"`
}

type inputVariant struct {
	ID         string    `json:"id"`
	VarReads   []float64 `json:"var_reads"`
	RefReads   []float64 `json:"ref_reads"`
	TotalReads []float64 `json:"total_reads"`
	OmegaV     []float64 `json:"omega_v"`
}

type outputData struct {
	Adjs [][][]int     `json:"adj"`
	Phis [][][]float64 `json:"phi"`
	LLHs []float64     `json:"llh"`
}

func main() {
	configPath := flag.String("c", "", "run configuration (YAML)")
	inputPath := flag.String("i", "", "input data (JSON)")
	outputPath := flag.String("o", "", "output samples (JSON)")
	treesPath := flag.String("t", "", "score fixed tree topologies instead of sampling")
	parallel := flag.Int("p", -1, "override configured parallelism degree")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *configPath == "" || *inputPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "-c, -i, and -o are all required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if *parallel >= 0 {
		cfg.Parallel = *parallel
	}

	input, err := loadInput(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading input")
	}

	rel, svs, superclusters, err := prepare(input)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing input")
	}

	progress := make(chan sampler.Progress, cfg.Chains*cfg.TreesPerChain)
	s, err := sampler.New(rel, svs, superclusters, variants.VAFFitter{}, cfg, sampler.WithProgress(progress))
	if err != nil {
		log.Fatal().Err(err).Msg("building sampler")
	}

	var results sampler.Results
	if *treesPath != "" {
		log.Info().Str("trees", *treesPath).Msg("scoring fixed tree topologies")
		adjs, err := loadTrees(*treesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("loading trees")
		}
		results, err = s.ScoreTrees(adjs)
		if err != nil {
			log.Fatal().Err(err).Msg("scoring trees")
		}
	} else {
		bar := progressbar.Default(int64(cfg.Chains*cfg.TreesPerChain), "sampling trees")
		done := make(chan struct{})
		go func() {
			for range progress {
				bar.Add(1)
			}
			close(done)
		}()

		results, err = s.SampleTrees()
		close(progress)
		<-done
		bar.Finish()
		if err != nil {
			log.Fatal().Err(err).Msg("sampling trees")
		}
	}

	if err := writeOutput(*outputPath, results); err != nil {
		log.Fatal().Err(err).Msg("writing output")
	}
	log.Info().Int("trees", len(results.Adjs)).Str("path", *outputPath).Msg("done")
}

func loadInput(path string) (inputData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return inputData{}, err
	}
	var input inputData
	if err := json.Unmarshal(raw, &input); err != nil {
		return inputData{}, err
	}
	return input, nil
}

func prepare(input inputData) (mutrel.Mutrel, []*variants.Supervariant, [][]int, error) {
	k := len(input.Mutrel)
	rel := mutrel.New(k)
	for a := 0; a < k; a++ {
		if len(input.Mutrel[a]) != k {
			return mutrel.Mutrel{}, nil, nil, fmt.Errorf("relation model row %d has %d columns, want %d", a, len(input.Mutrel[a]), k)
		}
		for b := 0; b < k; b++ {
			if len(input.Mutrel[a][b]) != mutrel.NumRelations {
				return mutrel.Mutrel{}, nil, nil, fmt.Errorf("relation model entry (%d,%d) has %d classes, want %d", a, b, len(input.Mutrel[a][b]), mutrel.NumRelations)
			}
			copy(rel.Rels[a][b], input.Mutrel[a][b])
		}
	}

	vars := make([]variants.Variant, len(input.Variants))
	for i, v := range input.Variants {
		vars[i] = variants.Variant{
			ID:         v.ID,
			VarReads:   v.VarReads,
			RefReads:   v.RefReads,
			TotalReads: v.TotalReads,
			OmegaV:     v.OmegaV,
		}
	}
	svs := variants.MakeSupervariants(input.Clusters, vars)
	if len(svs) != k {
		return mutrel.Mutrel{}, nil, nil, fmt.Errorf("relation model covers %d clusters but %d non-empty clusters given", k, len(svs))
	}
	return rel, svs, variants.MakeSuperclusters(len(svs)), nil
}

func loadTrees(path string) ([][][]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var adjs [][][]int
	if err := json.Unmarshal(raw, &adjs); err != nil {
		return nil, err
	}
	return adjs, nil
}

func writeOutput(path string, results sampler.Results) error {
	out := outputData{Adjs: results.Adjs, Phis: results.Phis, LLHs: results.LLHs}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}
