package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go-jobmarket-pipeline/internal/cluster"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/nlp"
)

// RetryConfig defines backoff for operations that can fail transiently.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	RetryableErrors   []string      `json:"retryable_errors"`
}

// StoreRetry is used for run-store writes, which sqlite may reject while
// another connection holds the write lock.
var StoreRetry = RetryConfig{
	MaxAttempts:       4,
	InitialDelay:      100 * time.Millisecond,
	MaxDelay:          2 * time.Second,
	BackoffMultiplier: 2.0,
	RetryableErrors:   []string{"database is locked", "busy"},
}

// withRetry runs op until it succeeds, fails with a non-retryable error,
// or runs out of attempts.
func withRetry(ctx context.Context, cfg RetryConfig, name string, op func() error) error {
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !cfg.isRetryable(err) || attempt == cfg.MaxAttempts {
			break
		}
		delay := cfg.backoff(attempt)
		fmt.Printf("🔄 %s failed (attempt %d/%d), retrying in %v: %v\n", name, attempt, cfg.MaxAttempts, delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1)))
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func (c RetryConfig) isRetryable(err error) bool {
	msg := err.Error()
	for _, r := range c.RetryableErrors {
		if strings.Contains(msg, r) {
			return true
		}
	}
	return false
}

// clusterWithPolicy clusters titles. When there are fewer informative
// titles than requested clusters and the config allows it, it retries once
// with the cluster count reduced to what the data supports.
func clusterWithPolicy(titles []string, cfg model.ClusteringConfig, sw *nlp.StopwordSet, tr *Tracker) (cluster.Assignment, *cluster.Model, error) {
	assign, m, err := cluster.NewEngine(cfg, sw).Cluster(titles)
	if err == nil {
		return assign, m, nil
	}

	var insuff *model.InsufficientDataError
	if !errors.As(err, &insuff) || !cfg.ReduceOnInsufficientData || insuff.Available == 0 {
		return nil, nil, err
	}

	fmt.Printf("🔄 Reducing clusters from %d to %d: only %d informative titles\n",
		insuff.Requested, insuff.Available, insuff.Available)
	tr.Log(StageTitles, "warning", "cluster count reduced", map[string]interface{}{
		"requested": insuff.Requested,
		"used":      insuff.Available,
	})

	cfg.Clusters = insuff.Available
	return cluster.NewEngine(cfg, sw).Cluster(titles)
}

// ReducedConfig returns a copy of cfg for re-running a run with a different
// cluster count. clusters <= 0 keeps the count and turns on automatic reduction.
func ReducedConfig(cfg model.PipelineConfig, clusters int) model.PipelineConfig {
	out := cfg
	if clusters > 0 {
		out.Clustering.Clusters = clusters
	} else {
		out.Clustering.ReduceOnInsufficientData = true
	}
	return out
}
