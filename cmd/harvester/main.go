package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"call-harvester-go/internal/assistant"
	"call-harvester-go/internal/bitrix"
	"call-harvester-go/internal/config"
	"call-harvester-go/internal/harvest"
	"call-harvester-go/internal/logger"
	"call-harvester-go/internal/report"
	"call-harvester-go/internal/resolver"
	"call-harvester-go/internal/types"
)

type runOptions struct {
	dateFrom    string
	dateTo      string
	callType    string
	minDur      int
	maxDur      int
	responsible string
	outDir      string
	reportPath  string
}

func main() {
	_ = godotenv.Load() // loads .env

	var (
		tenantID    = flag.String("tenant", "default", "tenant id (clients/<id>.yaml)")
		dateFrom    = flag.String("from", "", "start date, YYYY-MM-DD")
		dateTo      = flag.String("to", "", "end date, YYYY-MM-DD")
		callType    = flag.String("type", "", "call direction filter: incoming|outgoing")
		minDur      = flag.Int("min-duration", -1, "minimum call duration in seconds")
		maxDur      = flag.Int("max-duration", -1, "maximum call duration in seconds")
		responsible = flag.String("responsible", "", "comma-separated responsible ids")
		outDir      = flag.String("out", "recordings", "directory for downloaded audio")
		reportPath  = flag.String("report", "", "write an xlsx run report to this path")
		watchMode   = flag.Bool("watch", false, "keep running and re-harvest when the tenant's config file changes")
		transcripts = flag.String("transcripts", "", "directory of .txt transcripts to run through the assistant")
	)
	flag.Parse()

	log := logger.New()
	log.WithField("service", "call-harvester").Info("starting")

	cfg, err := config.Load(*tenantID)
	if err != nil {
		log.WithError(err).Fatal("tenant configuration")
	}

	ctx := context.Background()

	if *transcripts != "" {
		runTranscripts(ctx, cfg, *transcripts)
		return
	}

	if *dateFrom == "" || *dateTo == "" {
		log.Fatal("both -from and -to are required")
	}
	opts := runOptions{
		dateFrom:    *dateFrom,
		dateTo:      *dateTo,
		callType:    *callType,
		minDur:      *minDur,
		maxDur:      *maxDur,
		responsible: *responsible,
		outDir:      *outDir,
		reportPath:  *reportPath,
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		log.WithError(err).Fatal("create output dir")
	}

	runHarvest(ctx, cfg, opts)

	if *watchMode {
		err := config.Watch(ctx, func(updated config.Tenant) {
			if updated.ID != cfg.ID {
				return
			}
			runHarvest(ctx, updated, opts)
		})
		if err != nil {
			log.WithError(err).Fatal("config watcher")
		}
		log.WithField("tenant", cfg.ID).Info("watching tenant config for changes")
		select {}
	}
}

// runHarvest executes one full harvest with the given tenant settings and
// writes the report when asked for.
func runHarvest(ctx context.Context, cfg config.Tenant, opts runOptions) {
	log := logger.New()

	crm := bitrix.NewClient(cfg.WebhookURL)
	chain := resolver.NewChain(crm)
	sink := harvest.SinkFunc(func(ctx context.Context, call types.CallRecord, tenantID string) (bool, error) {
		name := filepath.Join(opts.outDir, call.CallID+".mp3")
		if err := os.WriteFile(name, call.AudioData, 0o644); err != nil {
			return false, err
		}
		return true, nil
	})

	params := harvest.Params{
		DateFrom: opts.dateFrom,
		DateTo:   opts.dateTo,
		CallType: opts.callType,
	}
	if opts.responsible != "" {
		params.ResponsibleIDs = strings.Split(opts.responsible, ",")
	}
	if opts.minDur >= 0 {
		params.MinDuration = &opts.minDur
	} else {
		params.MinDuration = cfg.MinDuration
	}
	if opts.maxDur >= 0 {
		params.MaxDuration = &opts.maxDur
	} else {
		params.MaxDuration = cfg.MaxDuration
	}

	h := harvest.New(crm, chain, sink, cfg)
	processed, summaries := h.Run(ctx, params)
	log.WithField("processed", processed).Info("harvest finished")

	if opts.reportPath != "" {
		if err := report.Write(opts.reportPath, summaries); err != nil {
			log.WithError(err).Error("report write failed")
		} else {
			log.WithField("path", opts.reportPath).Info("report written")
		}
	}
}

// runTranscripts feeds a directory of transcript files through the assistant
// and prints one JSON result per file.
func runTranscripts(ctx context.Context, cfg config.Tenant, dir string) {
	log := logger.New().WithField("module", "main")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Fatal("read transcripts dir")
	}
	var names []string
	var texts []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.WithField("file", e.Name()).WithError(err).Error("skipping unreadable transcript")
			continue
		}
		names = append(names, e.Name())
		texts = append(texts, string(data))
	}
	if len(texts) == 0 {
		log.Warn("no transcripts found")
		return
	}

	orc := assistant.New(assistant.NewHTTPClient(baseURL, apiKey), cfg.AssistantID)
	results := orc.ProcessBatch(ctx, texts)
	for i, res := range results {
		out, _ := json.Marshal(res)
		fmt.Printf("%s\t%s\n", names[i], string(out))
	}
}
