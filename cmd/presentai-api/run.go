package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/presentai/presentai/internal/api_server"
	"github.com/presentai/presentai/internal/config"
	"github.com/presentai/presentai/internal/events"
	"github.com/presentai/presentai/internal/gemini"
	"github.com/presentai/presentai/internal/media"
	"github.com/presentai/presentai/internal/remediation"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/internal/store"
	"github.com/presentai/presentai/pkg/blob"
	"github.com/presentai/presentai/pkg/log"
	"github.com/presentai/presentai/pkg/metrics"
	"github.com/presentai/presentai/pkg/migrations"
	"github.com/presentai/presentai/pkg/poll"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(cfg.Service.LogLevel)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
				zap.S().Fatalw("running db migrations", "error", err)
			}
		} else if err := s.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		prometheus.MustRegister(metrics.NewJobStatsCollector(s))

		analyzer, err := gemini.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.AnalysisModel)
		if err != nil {
			zap.S().Fatalw("creating analysis client", "error", err)
		}
		defer analyzer.Close()

		questionClient, err := gemini.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.QuestionModel)
		if err != nil {
			zap.S().Fatalw("creating question client", "error", err)
		}
		defer questionClient.Close()

		writer, err := newEventWriter(cfg)
		if err != nil {
			zap.S().Fatalw("creating event writer", "error", err)
		}

		producerOpts := []events.ProducerOptions{}
		if cfg.Service.Kafka.Topic != "" {
			producerOpts = append(producerOpts, events.WithOutputTopic(cfg.Service.Kafka.Topic))
		}
		producer := events.NewEventProducer(writer, producerOpts...)
		defer producer.Close()

		processor := media.NewProcessor()

		jobSrv := service.NewJobService(s, cfg, analyzer, processor,
			service.WithEventWriter(producer),
			service.WithRemediator(newRemediator(cfg, processor)),
		)
		questionSrv := service.NewQuestionService(s, questionClient,
			service.WithQuestionEventWriter(producer),
		)

		sweeper := service.NewSweeper(jobSrv, s, cfg.Service.RetentionWindow, cfg.Service.SweepInterval)
		sweeper.Start(ctx)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, jobSrv, questionSrv, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()

		// Let in-flight pipelines reach a terminal state before the event
		// producer closes.
		jobSrv.Wait()
		questionSrv.Wait()

		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

func newEventWriter(cfg *config.Config) (events.Writer, error) {
	if len(cfg.Service.Kafka.Brokers) == 0 {
		return &events.StdoutWriter{}, nil
	}

	saramaCfg := cfg.Service.Kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
		saramaCfg.Version = cfg.Service.Kafka.Version
		if cfg.Service.Kafka.ClientID != "" {
			saramaCfg.ClientID = cfg.Service.Kafka.ClientID
		}
	}

	return events.NewKafkaWriter(cfg.Service.Kafka.Brokers, saramaCfg)
}

func newRemediator(cfg *config.Config, stills remediation.StillExtractor) service.Remediator {
	videoClient := gemini.NewVideoClient(cfg.GenAI.APIKey, cfg.GenAI.VideoModel,
		gemini.WithVideoEndpoint(cfg.GenAI.VideoEndpoint))

	opts := []remediation.GeneratorOption{
		remediation.WithPoller(poll.New(cfg.Service.GenerationPollInterval, cfg.Service.GenerationPollCeiling)),
	}

	if cfg.Blob.Endpoint != "" {
		archive, err := blob.New(
			blob.WithEndpoint(cfg.Blob.Endpoint),
			blob.WithBucket(cfg.Blob.Bucket),
			blob.WithAccessKey(cfg.Blob.AccessKey),
			blob.WithSecretKey(cfg.Blob.SecretKey),
			blob.WithSSL(cfg.Blob.UseSSL),
		)
		if err == nil {
			opts = append(opts, remediation.WithArchive(archive))
		} else {
			zap.S().Errorw("failed to create blob archive", "error", err)
		}
	}

	return remediation.NewGenerator(stills, videoClient, opts...)
}
