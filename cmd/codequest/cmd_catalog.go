package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ipssi/codequest/internal/config"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/ipssi/codequest/internal/storage"
)

// loadConfig loads the configuration without opening the catalog
func loadConfig() (*config.LocalConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openCatalog loads the configured catalog into a registry. The returned
// function releases the catalog's database connection.
func openCatalog(ctx context.Context) (*exercise.Registry, *config.LocalConfig, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	dir, err := config.EnsureCodeQuestDir()
	if err != nil {
		return nil, nil, nil, err
	}

	src, closeFn, err := storage.OpenSource(ctx, cfg.Catalog, dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open catalog: %w", err)
	}

	registry := exercise.NewRegistry(src)
	if err := registry.Load(ctx); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return registry, cfg, closeFn, nil
}

// cmdCourses lists courses in catalog order
func cmdCourses() error {
	registry, _, closeFn, err := openCatalog(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	for _, c := range registry.ListCourses() {
		fmt.Printf("%s %s (%s, %d exercises)\n", c.Icon, c.Title, c.ID, len(c.Exercises))
		for _, ex := range c.Exercises {
			fmt.Printf("    %-14s %-30s %s\n", ex.Key(), ex.Title, ex.Difficulty)
		}
		fmt.Println()
	}

	fmt.Println("Use 'codequest exercise info <course>/<id>' for details")
	return nil
}

// cmdExercise shows exercises
func cmdExercise(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Exercise commands:

  codequest exercise info <course>/<id>  Show exercise details`)
		return nil
	}

	switch args[0] {
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("exercise key required (e.g., python/1)")
		}
		return cmdExerciseInfo(args[1])
	default:
		return fmt.Errorf("unknown exercise command: %s", args[0])
	}
}

func cmdExerciseInfo(key string) error {
	registry, _, closeFn, err := openCatalog(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	ex, err := registry.GetExerciseByKey(key)
	if err != nil {
		return err
	}

	fmt.Printf("Exercise: %s\n\n", ex.Title)
	fmt.Printf("Key:        %s\n", ex.Key())
	fmt.Printf("Language:   %s\n", ex.Language)
	fmt.Printf("Difficulty: %s\n", ex.Difficulty)
	if ex.UseMultiTab {
		fmt.Printf("Tabs:       html (editable: %t) + %s\n", ex.EditableHTML, ex.Language)
	}
	fmt.Printf("\nDescription:\n%s\n", ex.Description)
	if ex.Lesson != "" {
		fmt.Printf("\nLesson:\n%s\n", strings.TrimRight(ex.Lesson, "\n"))
	}
	if next, err := registry.NextExercise(ex.CourseID, ex.ID); err == nil && next != nil {
		fmt.Printf("\nNext: %s\n", next.Key())
	}
	return nil
}

// cmdCatalog validates and imports course files
func cmdCatalog(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Catalog commands:

  codequest catalog validate [dir]  Validate course files
  codequest catalog import [dir]    Import course files into the configured database`)
		return nil
	}

	switch args[0] {
	case "validate":
		return cmdCatalogValidate(args[1:])
	case "import":
		return cmdCatalogImport(args[1:])
	default:
		return fmt.Errorf("unknown catalog command: %s", args[0])
	}
}

// courseDir returns the course directory from args or the configuration
func courseDir(args []string, cfg *config.LocalConfig) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Catalog.Path
}

func cmdCatalogValidate(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := courseDir(args, cfg)

	courses, err := exercise.NewDirLoader(dir).LoadCourses(context.Background())
	if err != nil {
		return err
	}

	var result *multierror.Error
	exercises := 0
	for _, c := range courses {
		if err := exercise.Validate(c); err != nil {
			fmt.Printf("✗ %s\n", c.ID)
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.ID, err))
			continue
		}
		exercises += len(c.Exercises)
		fmt.Printf("✓ %s (%d exercises)\n", c.ID, len(c.Exercises))
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	fmt.Printf("\n%d courses, %d exercises in %s\n", len(courses), exercises, dir)
	return nil
}

func cmdCatalogImport(args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Catalog.Source == config.SourceYAML {
		return fmt.Errorf("catalog.source is yaml; set it to json, sqlite or postgres to import")
	}

	dataDir, err := config.EnsureCodeQuestDir()
	if err != nil {
		return err
	}

	store, closeFn, err := storage.OpenStore(ctx, cfg.Catalog, dataDir)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer closeFn()

	dir := courseDir(args, cfg)
	n, err := exercise.Import(ctx, exercise.NewDirLoader(dir), store)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Imported %d courses from %s into the %s catalog\n", n, dir, cfg.Catalog.Source)
	return nil
}
