package cmd

import (
	"context"
	"fmt"

	"github.com/kitia/cli/internal/favorites"
	"github.com/kitia/cli/internal/modules"
	"github.com/kitia/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type statusComponent struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type statusResponse struct {
	Status     string            `json:"status"`
	Storage    string            `json:"storage"`
	Components []statusComponent `json:"components"`
}

// FavoritesStatusProvider reports the favorites store state.
type FavoritesStatusProvider interface {
	Status() favorites.Status
}

// StatusCmd reports the health of the local storage and module loader.
type StatusCmd struct {
	favorites FavoritesStatusProvider
	// favoritesErr is set when the favorites module could not be loaded.
	favoritesErr error
	loader       ModuleService
	storage      string
}

// StatusInput holds input for the status command.
type StatusInput struct {
	Output string
}

// Run prints the status report.
func (c StatusCmd) Run(ctx context.Context, in StatusInput) error {
	resp := c.build()
	if in.Output == "json" {
		return util.PrintPrettyJSON(resp)
	}
	printStatus(resp)
	return nil
}

func (c StatusCmd) build() statusResponse {
	resp := statusResponse{Status: "operational", Storage: c.storage}

	switch {
	case c.favoritesErr != nil:
		resp.Components = append(resp.Components, statusComponent{Name: "Favorites", Status: "full_outage", Detail: c.favoritesErr.Error()})
	case c.favorites != nil:
		st := c.favorites.Status()
		comp := statusComponent{Name: "Favorites", Status: "operational", Detail: fmt.Sprintf("%d of %d", st.Count, favorites.MaxFavorites)}
		switch {
		case !st.Initialized:
			comp.Status = "unknown"
		case st.Saving || st.Pending:
			comp.Status = "maintenance"
			comp.Detail += ", saving"
		}
		resp.Components = append(resp.Components, comp)
	}

	ls := c.loader.Status()
	for _, name := range ls.Registered {
		comp := statusComponent{Name: "Module " + name, Status: "unknown", Detail: "not loaded"}
		switch {
		case lo.Contains(ls.Loading, name):
			comp.Status, comp.Detail = "maintenance", "loading"
		case lo.Contains(ls.Cached, name):
			comp.Status, comp.Detail = "operational", "cached"
		}
		resp.Components = append(resp.Components, comp)
	}

	if lo.SomeBy(resp.Components, func(comp statusComponent) bool { return comp.Status == "full_outage" }) {
		resp.Status = "partial_outage"
	}
	return resp
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the state of local storage and extension modules",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringP("output", "o", "", "Output format (json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	c := StatusCmd{loader: a.Loader, storage: a.Config.Storage}
	if store, err := a.Favorites(cmd.Context()); err != nil {
		c.favoritesErr = err
	} else {
		c.favorites = store
	}
	return c.Run(cmd.Context(), StatusInput{Output: output})
}

var statusDisplay = map[string]struct {
	label string
	rgb   pterm.RGB
}{
	"operational":    {label: "Operational", rgb: pterm.NewRGB(31, 163, 130)},
	"partial_outage": {label: "Degraded", rgb: pterm.NewRGB(242, 85, 51)},
	"full_outage":    {label: "Unavailable", rgb: pterm.NewRGB(239, 68, 68)},
	"maintenance":    {label: "Busy", rgb: pterm.NewRGB(36, 99, 235)},
	"unknown":        {label: "Idle", rgb: pterm.NewRGB(128, 128, 128)},
}

func getStatusDisplay(status string) (string, pterm.RGB) {
	if d, ok := statusDisplay[status]; ok {
		return d.label, d.rgb
	}
	return "Unknown", pterm.NewRGB(128, 128, 128)
}

func coloredDot(rgb pterm.RGB) string {
	return rgb.Sprint("●")
}

func printStatus(resp statusResponse) {
	label, rgb := getStatusDisplay(resp.Status)
	pterm.Println()
	pterm.Println("  " + fmt.Sprintf("Kit Status: %s", rgb.Sprint(label)))
	pterm.Println("  " + pterm.Gray("Storage: "+util.OrDash(resp.Storage)))
	pterm.Println()

	for _, comp := range resp.Components {
		compLabel, compColor := getStatusDisplay(comp.Status)
		pterm.Printf("    %s %-20s %-12s %s\n", coloredDot(compColor), comp.Name, compLabel, pterm.Gray(comp.Detail))
	}
	pterm.Println()
}

var (
	_ ModuleService           = (*modules.Loader)(nil)
	_ FavoritesService        = (*favorites.Store)(nil)
	_ FavoritesStatusProvider = (*favorites.Store)(nil)
)
