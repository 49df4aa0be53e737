// classify-titles trains and runs the job-title relevance classifier.
//
// Usage:
//
//	classify-titles --mode train
//	classify-titles --mode classify [--threshold 0.5] "Data Analyst" "Accountant"
//	... | classify-titles --mode classify        # titles on stdin, one per line
//
// Training reads positive examples from staging.jobs_v1 (everything in
// staging is assumed relevant) and uses the built-in false-positive
// list as negatives. The model is stored as JSON at --model.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/graemeboulton/job-insights-project/internal/classifier"
	"github.com/graemeboulton/job-insights-project/internal/logging"
	"github.com/graemeboulton/job-insights-project/internal/settings"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func main() {
	mode := flag.String("mode", "classify", "train|classify")
	modelPath := flag.String("model", classifier.DefaultModelPath, "path of the persisted model")
	threshold := flag.Float64("threshold", 0.5, "relevance threshold (0-1)")
	flag.Parse()

	if err := run(*mode, *modelPath, *threshold, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(mode, modelPath string, threshold float64, args []string) error {
	log, err := logging.New("classify-titles")
	if err != nil {
		return err
	}
	defer log.Sync()

	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("--threshold %v out of range (0-1)", threshold)
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "train":
		return train(log, modelPath)
	case "classify":
		return classify(modelPath, threshold, args)
	default:
		return fmt.Errorf("unknown --mode %q (expected train|classify)", mode)
	}
}

func train(log *zap.SugaredLogger, modelPath string) error {
	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	model, err := classifier.TrainFromStore(ctx, st)
	if err != nil {
		return err
	}
	if err := model.Save(modelPath); err != nil {
		return err
	}
	log.Infow("model trained",
		"positives", model.Positives, "negatives", model.Negatives,
		"features", len(model.Vocabulary), "path", modelPath)
	fmt.Printf("OK: model trained on %d positive and %d negative titles.\n",
		model.Positives, model.Negatives)
	return nil
}

func classify(modelPath string, threshold float64, titles []string) error {
	model, err := classifier.Load(modelPath)
	if err != nil {
		return fmt.Errorf("%w (run --mode train first?)", err)
	}

	if len(titles) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if t := strings.TrimSpace(sc.Text()); t != "" {
				titles = append(titles, t)
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
	}
	if len(titles) == 0 {
		return fmt.Errorf("no titles given (arguments or stdin)")
	}

	for _, res := range model.ClassifyBatch(titles, threshold) {
		verdict := color.RedString("NOT RELEVANT")
		if res.Relevant {
			verdict = color.GreenString("RELEVANT")
		}
		fmt.Printf("%5.1f%% | %-12s | %s\n", res.Confidence*100, verdict, res.Title)
	}
	return nil
}
