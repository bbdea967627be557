// Command seed populates the database with a demo social graph.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"nyx/internal/bootstrap"
	"nyx/internal/config"
	"nyx/internal/seed"
)

func main() {
	owners := flag.Int("owners", seed.DefaultMesh.Owners, "Number of owners to create")
	viewers := flag.Int("viewers", seed.DefaultMesh.Viewers, "Number of viewers to create")
	items := flag.Int("items", seed.DefaultMesh.ItemsPerOwner, "Items per owner")
	scenario := flag.String("scenario", "", "Apply a YAML scenario file instead of a random mesh")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	engine, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = engine.Close(ctx)
	}()

	if *shouldClean {
		if err := seed.ClearAll(engine.DB); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
		engine.Cache.InvalidatePublicOwners(context.Background())
	}

	ctx := context.Background()
	if *scenario != "" {
		log.Printf("Applying scenario: %s", *scenario)
		s, err := seed.LoadScenarioFile(*scenario)
		if err != nil {
			log.Fatalf("❌ Scenario load failed: %v", err)
		}
		handles, err := s.Apply(ctx, engine)
		if err != nil {
			log.Fatalf("❌ Scenario seeding failed: %v", err)
		}
		for name, id := range handles {
			log.Printf("  %s = %s", name, id)
		}
	} else {
		opts := seed.DefaultMesh
		opts.Owners, opts.Viewers, opts.ItemsPerOwner = *owners, *viewers, *items
		log.Printf("Target: %d owners, %d viewers, %d items each, clean=%v", opts.Owners, opts.Viewers, opts.ItemsPerOwner, *shouldClean)
		if _, err := seed.NewFactory(engine, seed.Options{Seed: *randSeed}).SeedMesh(ctx, opts); err != nil {
			log.Fatalf("❌ Mesh seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
}
