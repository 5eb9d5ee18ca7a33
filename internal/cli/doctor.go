package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/briefdash-labs/briefdash/internal/bootstrap"
	"github.com/briefdash-labs/briefdash/internal/snapshot"
)

// DiagnosticCheck is one doctor check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

func (c *CLI) newDoctorCmd() *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run system diagnostics.

Checks:
  - configuration validity
  - warehouse connectivity and data freshness
  - snapshot store connectivity and staleness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(showConfig)
		},
	}

	cmd.Flags().BoolVar(&showConfig, "show-config", false, "dump the effective configuration")
	return cmd
}

func (c *CLI) runDoctor(showConfig bool) error {
	c.println("Briefdash System Diagnostics")
	c.println("============================")
	c.println("")

	if showConfig {
		dump, err := yaml.Marshal(c.cfg)
		if err != nil {
			return err
		}
		c.println(string(dump))
	}

	var checks []DiagnosticCheck
	allPassed := true

	configCheck := c.checkConfig()
	checks = append(checks, configCheck)
	c.printCheck(configCheck)

	var app *bootstrap.App
	if configCheck.Passed {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		app, err = bootstrap.New(ctx, c.cfg)
		if err != nil {
			check := DiagnosticCheck{Name: "bootstrap", Message: err.Error()}
			checks = append(checks, check)
			c.printCheck(check)
			allPassed = false
		} else {
			defer app.Close()

			whCheck := c.checkWarehouse(ctx, app)
			checks = append(checks, whCheck)
			c.printCheck(whCheck)

			storeCheck := c.checkStore(ctx, app)
			checks = append(checks, storeCheck)
			c.printCheck(storeCheck)
		}
	}

	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
	}

	c.println("")

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	if allPassed {
		c.println("✓ All checks passed")
		return nil
	}
	return fmt.Errorf("one or more checks failed")
}

func (c *CLI) checkConfig() DiagnosticCheck {
	if err := c.cfg.Validate(); err != nil {
		return DiagnosticCheck{Name: "configuration", Message: err.Error()}
	}
	return DiagnosticCheck{
		Name:    "configuration",
		Passed:  true,
		Message: fmt.Sprintf("project=%s location=%s ceiling=%.1fGB", c.cfg.Warehouse.Project, c.cfg.Warehouse.Location, c.cfg.Cost.MaxScanGB),
	}
}

func (c *CLI) checkWarehouse(ctx context.Context, app *bootstrap.App) DiagnosticCheck {
	if err := app.Warehouse.Ping(ctx); err != nil {
		return DiagnosticCheck{Name: "warehouse", Message: err.Error()}
	}

	// Freshness probe: current-month record counts and date range.
	result, err := app.Guard.Run(ctx, app.Builder.HealthCheckQuery(), c.cfg.Timeouts.TableQuery, "doctor")
	if err != nil {
		return DiagnosticCheck{Name: "warehouse", Message: fmt.Sprintf("reachable but health query failed: %v", err)}
	}

	msg := "reachable"
	if len(result.Rows) > 0 {
		if latest, ok := result.Rows[0]["latest_date"]; ok {
			msg = fmt.Sprintf("reachable, latest data date %v", latest)
		}
	}
	return DiagnosticCheck{Name: "warehouse", Passed: true, Message: msg}
}

func (c *CLI) checkStore(ctx context.Context, app *bootstrap.App) DiagnosticCheck {
	snap, err := app.Store.GetLatest(ctx, snapshot.FamilySouke)
	if err != nil {
		return DiagnosticCheck{Name: "snapshot store", Message: err.Error()}
	}
	if snap == nil {
		return DiagnosticCheck{Name: "snapshot store", Passed: true, Message: "reachable, no snapshot yet"}
	}

	msg := fmt.Sprintf("reachable, %s snapshot is %s old", snap.Family, snap.Age(time.Now()).Round(time.Minute))
	if snap.IsExpired(time.Now(), c.cfg.Cache.TTL) {
		msg += " (stale)"
	}
	return DiagnosticCheck{Name: "snapshot store", Passed: true, Message: msg}
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	mark := "✓"
	if !check.Passed {
		mark = "✗"
	}
	c.printf("%s %-16s %s\n", mark, check.Name, check.Message)
}
