package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"androbot/internal/app"
	"androbot/internal/config"
	"androbot/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errPostgresNotConfigured = errors.New("postgres url not configured")

// NewLoadQuestionsCmd bulk-imports a semicolon separated question file into a specialty.
func NewLoadQuestionsCmd(configPath *string) *cobra.Command {
	var (
		rawSpecialty string
		drop         bool
	)
	cmd := &cobra.Command{
		Use:   "load-questions FILE",
		Short: "Import questions (category; prompt; answer; info) into a specialty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("question file: %w", err)
			}
			if _, err := domain.ParseSpecialty(rawSpecialty); err != nil {
				return err
			}

			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			specialty, err := activeSpecialty(cfg, rawSpecialty)
			if err != nil {
				return err
			}
			// an in-memory import would be gone when the command exits
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("load-questions: %w", errPostgresNotConfigured)
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}
			deps, err := buildComponents(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()

			n, err := importQuestionFile(ctx, deps.service, path, specialty, drop)
			if err != nil {
				return err
			}
			log.Info("question file loaded", zap.String("file", path), zap.Int("count", n), zap.Bool("dropped", drop))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawSpecialty, "specialty", "", "target specialty")
	cmd.Flags().BoolVar(&drop, "drop", false, "remove existing questions of the specialty first")
	_ = cmd.MarkFlagRequired("specialty")
	return cmd
}

// activeSpecialty parses raw and checks it against the configured specialties.
func activeSpecialty(cfg config.Config, raw string) (domain.Specialty, error) {
	specialty, err := domain.ParseSpecialty(raw)
	if err != nil {
		return "", err
	}
	active, err := cfg.Bot.ActiveSpecialties()
	if err != nil {
		return "", err
	}
	if !containsSpecialty(active, specialty) {
		return "", fmt.Errorf("%w: %q is not active", domain.ErrUnknownSpecialty, specialty)
	}
	return specialty, nil
}

func importQuestionFile(ctx context.Context, service *app.Service, path string, specialty domain.Specialty, drop bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("question file: %w", err)
	}
	defer f.Close()
	return service.ImportQuestions(ctx, specialty, f, drop)
}

func containsSpecialty(list []domain.Specialty, s domain.Specialty) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
