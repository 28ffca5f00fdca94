package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kitia/cli/internal/catalog"
	"github.com/kitia/cli/pkg/util"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// FavoritesService defines the subset of the favorites store the commands use.
type FavoritesService interface {
	All() []string
	Export() []string
	Toggle(id string) (bool, error)
	Add(id string) (bool, error)
	Remove(id string) (bool, error)
	Clear(ctx context.Context) error
	Import(ctx context.Context, ids []string) (int, error)
	Flush(ctx context.Context) error
}

// CatalogService defines the catalog lookups the commands use.
type CatalogService interface {
	All() []catalog.Entry
	Get(id string) (catalog.Entry, bool)
	Search(query string) []catalog.Entry
	ByCategory(category string) []catalog.Entry
	Resolve(ids []string) []catalog.Entry
}

// FavoritesCmd handles favorites operations.
type FavoritesCmd struct {
	favorites FavoritesService
	catalog   CatalogService
	openURL   func(url string) error
}

// FavoritesListInput holds input for listing favorites.
type FavoritesListInput struct {
	Output string
}

// List prints the favorites, resolved against the catalog.
func (c FavoritesCmd) List(ctx context.Context, in FavoritesListInput) error {
	ids := c.favorites.All()
	if in.Output == "json" {
		return util.PrintPrettyJSON(ids)
	}
	if len(ids) == 0 {
		pterm.Info.Println("No favorites yet")
		return nil
	}

	rows := pterm.TableData{{"#", "ID", "Name", "Category"}}
	for i, e := range c.catalog.Resolve(ids) {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.ID, util.OrDash(e.Name), util.OrDash(e.Category)})
	}
	PrintTableNoPad(rows, true)
	return nil
}

// FavoriteInput identifies a single favorite.
type FavoriteInput struct {
	ID     string
	Output string
}

type favoriteResult struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Changed  bool   `json:"changed"`
}

// Add marks an id as favorite.
func (c FavoritesCmd) Add(ctx context.Context, in FavoriteInput) error {
	c.warnUnknown(in.ID)
	added, err := c.favorites.Add(in.ID)
	if err != nil {
		return err
	}
	if err := c.favorites.Flush(ctx); err != nil {
		return err
	}
	if in.Output == "json" {
		return util.PrintPrettyJSON(favoriteResult{ID: in.ID, Favorite: true, Changed: added})
	}
	if added {
		pterm.Success.Printf("Added favorite: %s\n", in.ID)
	} else {
		pterm.Info.Printf("'%s' is already a favorite\n", in.ID)
	}
	return nil
}

// Remove unmarks an id.
func (c FavoritesCmd) Remove(ctx context.Context, in FavoriteInput) error {
	removed, err := c.favorites.Remove(in.ID)
	if err != nil {
		return err
	}
	if err := c.favorites.Flush(ctx); err != nil {
		return err
	}
	if in.Output == "json" {
		return util.PrintPrettyJSON(favoriteResult{ID: in.ID, Favorite: false, Changed: removed})
	}
	if removed {
		pterm.Success.Printf("Removed favorite: %s\n", in.ID)
	} else {
		pterm.Info.Printf("'%s' is not a favorite\n", in.ID)
	}
	return nil
}

// Toggle flips an id's favorite state.
func (c FavoritesCmd) Toggle(ctx context.Context, in FavoriteInput) error {
	c.warnUnknown(in.ID)
	on, err := c.favorites.Toggle(in.ID)
	if err != nil {
		return err
	}
	if err := c.favorites.Flush(ctx); err != nil {
		return err
	}
	if in.Output == "json" {
		return util.PrintPrettyJSON(favoriteResult{ID: in.ID, Favorite: on, Changed: true})
	}
	if on {
		pterm.Success.Printf("Added favorite: %s\n", in.ID)
	} else {
		pterm.Success.Printf("Removed favorite: %s\n", in.ID)
	}
	return nil
}

// FavoritesClearInput holds input for clearing favorites.
type FavoritesClearInput struct {
	SkipConfirm bool
}

// Clear removes every favorite.
func (c FavoritesCmd) Clear(ctx context.Context, in FavoritesClearInput) error {
	if !in.SkipConfirm {
		msg := fmt.Sprintf("Are you sure you want to remove all %d favorites?", len(c.favorites.All()))
		pterm.DefaultInteractiveConfirm.DefaultText = msg
		ok, _ := pterm.DefaultInteractiveConfirm.Show()
		if !ok {
			pterm.Info.Println("Clear cancelled")
			return nil
		}
	}
	if err := c.favorites.Clear(ctx); err != nil {
		return err
	}
	pterm.Success.Println("Cleared favorites")
	return nil
}

// FavoritesImportInput holds input for importing favorites.
type FavoritesImportInput struct {
	// Path of a JSON array of ids; "-" reads stdin.
	Path  string
	Stdin io.Reader
}

// Import replaces the favorites with the ids in a JSON file.
func (c FavoritesCmd) Import(ctx context.Context, in FavoritesImportInput) error {
	var (
		data []byte
		err  error
	)
	if in.Path == "-" {
		stdin := in.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(in.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in.Path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("import file must be a JSON array of ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}

	n, err := c.favorites.Import(ctx, ids)
	if err != nil {
		return err
	}
	if skipped := len(ids) - n; skipped > 0 {
		pterm.Warning.Printf("Skipped %d empty, duplicate or excess ids\n", skipped)
	}
	pterm.Success.Printf("Imported %d favorites\n", n)
	return nil
}

// FavoritesExportInput holds input for exporting favorites.
type FavoritesExportInput struct {
	// Path to write; empty prints to stdout.
	Path string
}

// Export writes the favorites as a JSON array.
func (c FavoritesCmd) Export(ctx context.Context, in FavoritesExportInput) error {
	ids := c.favorites.Export()
	if in.Path == "" {
		return util.PrintPrettyJSON(ids)
	}
	data, err := util.MarshalPretty(ids)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(in.Path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", in.Path, err)
	}
	pterm.Success.Printf("Exported %d favorites to %s\n", len(ids), in.Path)
	return nil
}

// Open opens a catalog entry in the browser.
func (c FavoritesCmd) Open(ctx context.Context, in FavoriteInput) error {
	return openEntry(c.catalog, c.openURL, in.ID)
}

func (c FavoritesCmd) warnUnknown(id string) {
	if _, ok := c.catalog.Get(id); !ok {
		pterm.Warning.Printf("'%s' is not in the catalog\n", id)
	}
}

func openEntry(cat CatalogService, openURL func(string) error, id string) error {
	e, ok := cat.Get(id)
	if !ok {
		return fmt.Errorf("unknown catalog id %q", id)
	}
	if openURL == nil {
		openURL = browser.OpenURL
	}
	if err := openURL(e.URL); err != nil {
		pterm.Warning.Printf("Could not open a browser. Visit %s\n", e.URL)
		return nil
	}
	pterm.Info.Printf("Opened %s\n", e.Name)
	return nil
}

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite GPTs",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a favorite",
	Args:    cobra.ExactArgs(1),
	RunE:    runFavoritesRemove,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add or remove a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesToggle,
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all favorites",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesClear,
}

var favoritesImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace favorites with a JSON array of ids",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesImport,
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write favorites as a JSON array",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFavoritesExport,
}

var favoritesOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a GPT in the browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesOpen,
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesClearCmd)
	favoritesCmd.AddCommand(favoritesImportCmd)
	favoritesCmd.AddCommand(favoritesExportCmd)
	favoritesCmd.AddCommand(favoritesOpenCmd)

	for _, c := range []*cobra.Command{favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd, favoritesToggleCmd} {
		c.Flags().StringP("output", "o", "", "Output format (json)")
	}
	favoritesClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	rootCmd.AddCommand(favoritesCmd)
}

func newFavoritesCmd(cmd *cobra.Command) (FavoritesCmd, error) {
	a, err := getApp(cmd)
	if err != nil {
		return FavoritesCmd{}, err
	}
	store, err := a.Favorites(cmd.Context())
	if err != nil {
		return FavoritesCmd{}, err
	}
	cat, err := a.Catalog(cmd.Context())
	if err != nil {
		return FavoritesCmd{}, err
	}
	return FavoritesCmd{favorites: store, catalog: cat}, nil
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return c.List(cmd.Context(), FavoritesListInput{Output: output})
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return c.Add(cmd.Context(), FavoriteInput{ID: args[0], Output: output})
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return c.Remove(cmd.Context(), FavoriteInput{ID: args[0], Output: output})
}

func runFavoritesToggle(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return c.Toggle(cmd.Context(), FavoriteInput{ID: args[0], Output: output})
}

func runFavoritesClear(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	skip, _ := cmd.Flags().GetBool("yes")
	return c.Clear(cmd.Context(), FavoritesClearInput{SkipConfirm: skip})
}

func runFavoritesImport(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	return c.Import(cmd.Context(), FavoritesImportInput{Path: args[0], Stdin: cmd.InOrStdin()})
}

func runFavoritesExport(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	return c.Export(cmd.Context(), FavoritesExportInput{Path: path})
}

func runFavoritesOpen(cmd *cobra.Command, args []string) error {
	c, err := newFavoritesCmd(cmd)
	if err != nil {
		return err
	}
	return c.Open(cmd.Context(), FavoriteInput{ID: args[0]})
}
