package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/greenthumb/internal/app"
	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/service"
	"github.com/yourorg/greenthumb/pkg/config"
)

type seedUser struct {
	username, email, password string
	plants                    []seedPlant
	tip                       [2]string
	post                      [2]string
	layout                    seedLayout
}

type seedPlant struct {
	name     string
	task     domain.Task
	interval domain.Interval
}

type seedLayout struct {
	name string
	data string
}

var sampleData = []seedUser{
	{
		username: "Akamuran",
		email:    "doroakamu@gmail.com",
		password: "password1",
		plants: []seedPlant{
			{name: "Watermelon", task: domain.TaskWatering, interval: domain.IntervalDaily},
			{name: "Mint", task: domain.TaskPruning, interval: domain.IntervalWeekly},
		},
		tip:    [2]string{"Morning Watering", "Water your plants early in the morning."},
		post:   [2]string{"How to grow watermelon?", "Any tips for growing watermelon?"},
		layout: seedLayout{name: "Vegetable Garden", data: `{"beds":[{"row":1,"plants":["Watermelon","Mint"]}]}`},
	},
	{
		username: "Eric",
		email:    "choge@12.com",
		password: "Greenthumb2",
		plants: []seedPlant{
			{name: "Lily", task: domain.TaskFertilizing, interval: domain.IntervalMonthly},
		},
		tip:    [2]string{"Use Compost", "Use compost for better growth."},
		post:   [2]string{"Best fertilizer for lily?", "What is the best fertilizer for lilies?"},
		layout: seedLayout{name: "Flower Garden", data: `{"beds":[{"row":1,"plants":["Lily"]}]}`},
	},
}

// seedCmd loads sample content through the services, so passwords are
// hashed and every ownership rule applies.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample users, plants, schedules and community content",
	Long: `Create two sample gardeners with plants, care schedules, tips, forum
posts and garden layouts. Nothing is changed when the sample users exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StorageBackend != config.StoragePostgres {
			return fmt.Errorf("seed requires STORAGE_BACKEND=%s; memory data would be lost on exit", config.StoragePostgres)
		}
		storage, err := app.OpenStorage(cmd.Context(), cfg, true, log)
		if err != nil {
			return err
		}
		defer storage.Close()

		services, err := app.NewServices(cfg, storage, log)
		if err != nil {
			return err
		}

		created, err := seed(cmd.Context(), services, time.Now().UTC())
		if err != nil {
			return err
		}
		if created == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "sample data already present")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sample data created for %d users\n", created)
		return nil
	},
}

// seed returns how many sample users it created.
func seed(ctx context.Context, svc *app.Services, today time.Time) (int, error) {
	created := 0
	for _, su := range sampleData {
		user, err := svc.Auth.Register(ctx, su.username, su.email, su.password)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("register %s: %w", su.username, err)
		}
		created++

		for _, sp := range su.plants {
			plant, err := svc.Plants.Create(ctx, user.ID, service.PlantInput{Name: sp.name})
			if err != nil {
				return created, fmt.Errorf("plant %s: %w", sp.name, err)
			}
			_, err = svc.Schedules.Create(ctx, user.ID, service.ScheduleInput{
				PlantID:      plant.ID,
				Task:         string(sp.task),
				ScheduleDate: today.Format(domain.DateLayout),
				Interval:     string(sp.interval),
			})
			if err != nil {
				return created, fmt.Errorf("schedule for %s: %w", sp.name, err)
			}
		}

		if _, err := svc.Tips.Create(ctx, user.ID, su.tip[0], su.tip[1]); err != nil {
			return created, fmt.Errorf("tip: %w", err)
		}
		if _, err := svc.Forum.CreatePost(ctx, user.ID, su.post[0], su.post[1]); err != nil {
			return created, fmt.Errorf("post: %w", err)
		}
		if _, err := svc.Layouts.Create(ctx, user.ID, su.layout.name, json.RawMessage(su.layout.data)); err != nil {
			return created, fmt.Errorf("layout: %w", err)
		}
	}
	return created, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
