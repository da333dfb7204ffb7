package di

import (
	"context"
	"fmt"
	"time"

	"booking-runner/internal/application/port/input"
	"booking-runner/internal/application/port/output"
	"booking-runner/internal/application/usecase"
	"booking-runner/internal/infrastructure/browser/rodpool"
	"booking-runner/internal/infrastructure/logger"
	"booking-runner/internal/infrastructure/queue"
	"booking-runner/internal/infrastructure/sink"
)

type Config struct {
	RunName        string
	LogLevel       string
	Headless       bool
	SlowMotion     time.Duration
	PoolSize       int
	Workers        int
	AcquireTimeout time.Duration
	ActionTimeout  time.Duration
	ResultsFile    string
	ArtifactDir    string
}

type Container struct {
	Logger  output.LoggerPort
	Pool    output.SessionPool
	Queue   output.TaskQueue
	Results *sink.Memory
	Sink    output.ResultSink
	Runner  input.TaskRunner
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter(cfg.LogLevel, cfg.RunName)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	browserCfg := rodpool.DefaultConfig()
	browserCfg.Headless = cfg.Headless
	browserCfg.SlowMotion = cfg.SlowMotion
	browserCfg.Timeout = cfg.ActionTimeout
	factory, err := rodpool.NewRodFactory(ctx, browserCfg)
	if err != nil {
		log.Close()
		return nil, err
	}

	poolCfg := rodpool.DefaultPoolConfig()
	if cfg.PoolSize > 0 {
		poolCfg.Size = cfg.PoolSize
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.AcquireTimeout = cfg.AcquireTimeout
	}
	pool := rodpool.NewPool(factory, poolCfg, log)

	taskQueue := queue.NewMemory()

	results := sink.NewMemory()
	var resultSink output.ResultSink = results
	if cfg.ResultsFile != "" {
		jsonl, err := sink.NewJSONL(cfg.ResultsFile)
		if err != nil {
			pool.Close()
			log.Close()
			return nil, fmt.Errorf("create result sink: %w", err)
		}
		resultSink = sink.NewTee(results, jsonl)
	}

	execCfg := usecase.DefaultExecutorConfig()
	if cfg.ActionTimeout > 0 {
		execCfg.ActionTimeout = cfg.ActionTimeout
	}
	if cfg.ArtifactDir != "" {
		execCfg.ArtifactDir = cfg.ArtifactDir
	}
	executor := usecase.NewExecutor(pool, log, execCfg)

	runner := usecase.NewRunner(taskQueue, resultSink, executor, log, cfg.Workers)

	return &Container{
		Logger:  log,
		Pool:    pool,
		Queue:   taskQueue,
		Results: results,
		Sink:    resultSink,
		Runner:  runner,
	}, nil
}

func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Sink != nil {
		c.Sink.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
