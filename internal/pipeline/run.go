// Package pipeline drives one fetch → transform → load run to completion.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"

	"pulsefeed/internal/config"
	"pulsefeed/internal/fetch"
	mdb "pulsefeed/internal/mongo"
	"pulsefeed/internal/transform"
)

// Store is the write side of the document store.
type Store interface {
	Upsert(ctx context.Context, docs []mdb.RecordDoc) mdb.Result
}

// Summary reports what one run did.
type Summary struct {
	Pages     int
	Processed int
	Skipped   int
	mdb.Result
}

// Run executes the pipeline for the configured source. On a fatal fetch
// error the summary still reflects everything processed up to that point;
// pending documents are flushed before the error is returned.
func Run(ctx context.Context, cfg config.Config, fc *fetch.Client, store Store) (Summary, error) {
	tr := transform.New(cfg)
	if cfg.Source == config.SourceWeather {
		return runWeather(ctx, cfg, fc, tr, store)
	}
	return runPulses(ctx, cfg, fc, tr, store)
}

func runPulses(ctx context.Context, cfg config.Config, fc *fetch.Client, tr *transform.Transformer, store Store) (Summary, error) {
	var sum Summary
	pager := fc.Pages("/pulses/subscribed", cfg.PageSize, cfg.MaxPages)

	batch := make([]mdb.RecordDoc, 0, cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		sum.Result.Add(store.Upsert(ctx, batch))
		batch = batch[:0]
	}

	for {
		items, err := pager.Next(ctx)
		if err != nil {
			flush()
			return sum, err
		}
		if items == nil {
			break
		}
		sum.Pages++

		for _, raw := range items {
			doc, err := tr.Pulse(raw)
			if err != nil {
				slog.Warn("skipping record", "page", sum.Pages, "err", err)
				sum.Skipped++
				continue
			}
			if !transform.Validate(doc) {
				slog.Warn("document failed validation, skipping", "pulse_id", doc.PulseID, "page", sum.Pages)
				sum.Skipped++
				continue
			}
			batch = append(batch, doc)
			sum.Processed++
			if len(batch) >= cfg.BatchSize {
				flush()
				slog.Info("progress", "processed", sum.Processed, "upserted", sum.Upserted)
			}
		}
	}

	flush()
	return sum, nil
}

func runWeather(ctx context.Context, cfg config.Config, fc *fetch.Client, tr *transform.Transformer, store Store) (Summary, error) {
	var sum Summary

	params := url.Values{}
	params.Set("q", cfg.City)
	params.Set("units", "metric")

	body, err := fc.GetJSON(ctx, "/weather", params)
	if err != nil {
		return sum, err
	}
	sum.Pages = 1

	doc, err := tr.Weather(body)
	if err != nil {
		slog.Warn("skipping observation", "city", cfg.City, "err", err)
		sum.Skipped++
		return sum, nil
	}
	if !transform.Validate(doc) {
		slog.Warn("document failed validation, skipping", "city", cfg.City)
		sum.Skipped++
		return sum, nil
	}

	sum.Result.Add(store.Upsert(ctx, []mdb.RecordDoc{doc}))
	sum.Processed = 1
	return sum, nil
}
