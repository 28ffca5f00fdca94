package cmd

import (
	"context"
	"strings"

	"github.com/kitia/cli/internal/catalog"
	"github.com/kitia/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// CatalogCmd handles catalog browsing.
type CatalogCmd struct {
	catalog   CatalogService
	favorites FavoritesService
	openURL   func(url string) error
}

// CatalogListInput holds input for listing or searching the catalog.
type CatalogListInput struct {
	Category string
	Query    string
	Output   string
}

// List prints catalog entries, optionally filtered by category or query.
func (c CatalogCmd) List(ctx context.Context, in CatalogListInput) error {
	entries := c.catalog.All()
	if in.Query != "" {
		entries = c.catalog.Search(in.Query)
	}
	if in.Category != "" {
		entries = lo.Filter(entries, func(e catalog.Entry, _ int) bool {
			return strings.EqualFold(e.Category, in.Category)
		})
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(entries)
	}
	if len(entries) == 0 {
		pterm.Info.Println("No catalog entries found")
		return nil
	}

	var favs map[string]struct{}
	if c.favorites != nil {
		favs = lo.SliceToMap(c.favorites.All(), func(id string) (string, struct{}) { return id, struct{}{} })
	}

	rows := pterm.TableData{{"ID", "Name", "Category", "Favorite"}}
	for _, e := range entries {
		fav := "-"
		if _, ok := favs[e.ID]; ok {
			fav = "yes"
		}
		rows = append(rows, []string{e.ID, e.Name, util.OrDash(e.Category), fav})
	}
	PrintTableNoPad(rows, true)
	return nil
}

// CatalogOpenInput holds input for opening an entry.
type CatalogOpenInput struct {
	ID string
}

// Open opens an entry's URL in the browser.
func (c CatalogCmd) Open(ctx context.Context, in CatalogOpenInput) error {
	return openEntry(c.catalog, c.openURL, in.ID)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the GPT catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalog entries by id, name or description",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSearch,
}

var catalogOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a catalog entry in the browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogOpen,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogOpenCmd)

	for _, c := range []*cobra.Command{catalogListCmd, catalogSearchCmd} {
		c.Flags().String("category", "", "Filter by category")
		c.Flags().StringP("output", "o", "", "Output format (json)")
		_ = c.RegisterFlagCompletionFunc("category", completeCategories)
	}

	rootCmd.AddCommand(catalogCmd)
}

// completeCategories offers the categories of the embedded catalog.
func completeCategories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return lo.Filter(cat.Categories(), func(c string, _ int) bool {
		return strings.HasPrefix(c, toComplete)
	}), cobra.ShellCompDirectiveNoFileComp
}

func newCatalogCmd(cmd *cobra.Command) (CatalogCmd, error) {
	a, err := getApp(cmd)
	if err != nil {
		return CatalogCmd{}, err
	}
	cat, err := a.Catalog(cmd.Context())
	if err != nil {
		return CatalogCmd{}, err
	}
	c := CatalogCmd{catalog: cat}
	// Favorites only decorate the listing; a broken store must not hide the catalog.
	if store, err := a.Favorites(cmd.Context()); err == nil {
		c.favorites = store
	} else {
		a.Logger.Warn("favorites unavailable", a.Logger.Args("error", err))
	}
	return c, nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	c, err := newCatalogCmd(cmd)
	if err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	output, _ := cmd.Flags().GetString("output")
	return c.List(cmd.Context(), CatalogListInput{Category: category, Output: output})
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	c, err := newCatalogCmd(cmd)
	if err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	output, _ := cmd.Flags().GetString("output")
	return c.List(cmd.Context(), CatalogListInput{Category: category, Query: args[0], Output: output})
}

func runCatalogOpen(cmd *cobra.Command, args []string) error {
	c, err := newCatalogCmd(cmd)
	if err != nil {
		return err
	}
	return c.Open(cmd.Context(), CatalogOpenInput{ID: args[0]})
}
