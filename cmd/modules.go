package cmd

import (
	"context"
	"sort"
	"strings"

	"github.com/kitia/cli/internal/modules"
	"github.com/kitia/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// ModuleService defines the subset of the module loader the commands use.
type ModuleService interface {
	Init(ctx context.Context) bool
	LoadMultiple(ctx context.Context, names []string) (map[string]modules.Exports, error)
	InvalidateCache(name string) bool
	Status() modules.Status
}

// ModulesCmd handles module loader operations.
type ModulesCmd struct {
	loader ModuleService
}

// ModulesStatusInput holds input for printing loader status.
type ModulesStatusInput struct {
	Output string
}

// Status prints every registered module and whether it is cached.
func (c ModulesCmd) Status(ctx context.Context, in ModulesStatusInput) error {
	st := c.loader.Status()
	if in.Output == "json" {
		return util.PrintPrettyJSON(st)
	}

	rows := pterm.TableData{{"Module", "State"}}
	for _, name := range st.Registered {
		state := "registered"
		switch {
		case lo.Contains(st.Loading, name):
			state = "loading"
		case lo.Contains(st.Cached, name):
			state = "cached"
		}
		rows = append(rows, []string{name, state})
	}
	PrintTableNoPad(rows, true)
	return nil
}

// ModulesLoadInput holds input for loading modules.
type ModulesLoadInput struct {
	Names  []string
	Reload bool
}

// Load loads the named modules, or every registered module when none are given.
func (c ModulesCmd) Load(ctx context.Context, in ModulesLoadInput) error {
	if len(in.Names) == 0 {
		if !c.loader.Init(ctx) {
			pterm.Warning.Println("Some registered modules cannot be located by any source")
		}
		in.Names = c.loader.Status().Registered
		if len(in.Names) == 0 {
			pterm.Info.Println("No modules registered")
			return nil
		}
	}

	if in.Reload {
		for _, name := range in.Names {
			c.loader.InvalidateCache(name)
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Loading " + strings.Join(in.Names, ", "))
	loaded, err := c.loader.LoadMultiple(ctx, in.Names)
	if err != nil {
		if spinner != nil {
			spinner.Fail("Module load failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Success("Loaded modules")
	}

	rows := pterm.TableData{{"Module", "Exports"}}
	for _, name := range in.Names {
		keys := lo.Keys(loaded[name])
		sort.Strings(keys)
		rows = append(rows, []string{name, util.JoinOrDash(keys...)})
	}
	PrintTableNoPad(rows, true)
	return nil
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Inspect and load extension modules",
}

var modulesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registered, cached and loading modules",
	Args:  cobra.NoArgs,
	RunE:  runModulesStatus,
}

var modulesLoadCmd = &cobra.Command{
	Use:   "load [name...]",
	Short: "Load modules and their dependencies",
	Long:  "Load the named modules and their dependencies. With no names, load every registered module.",
	RunE:  runModulesLoad,
}

func init() {
	modulesCmd.AddCommand(modulesStatusCmd)
	modulesCmd.AddCommand(modulesLoadCmd)

	modulesStatusCmd.Flags().StringP("output", "o", "", "Output format (json)")
	modulesLoadCmd.Flags().Bool("reload", false, "Drop cached copies before loading")

	rootCmd.AddCommand(modulesCmd)
}

func runModulesStatus(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	c := ModulesCmd{loader: a.Loader}
	return c.Status(cmd.Context(), ModulesStatusInput{Output: output})
}

func runModulesLoad(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	reload, _ := cmd.Flags().GetBool("reload")
	c := ModulesCmd{loader: a.Loader}
	return c.Load(cmd.Context(), ModulesLoadInput{Names: args, Reload: reload})
}
