package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/samber/lo"

	"vehicledetect/internal/model"
	"vehicledetect/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/runs.db", "Run history database path")
	limit := flag.Int("limit", 20, "Number of recent runs to list")
	classes := flag.Bool("classes", false, "Print per-class totals instead of runs")
	clear := flag.Bool("clear", false, "Delete every stored run")
	flag.Parse()

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("Database not found: %s", *dbPath)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewRunRepository(db)

	switch {
	case *clear:
		if err := repo.DeleteAll(); err != nil {
			log.Fatalf("Failed to clear history: %v", err)
		}
		fmt.Println("✅ History cleared")

	case *classes:
		counts, err := repo.ClassCounts()
		if err != nil {
			log.Fatalf("Failed to count classes: %v", err)
		}
		if len(counts) == 0 {
			fmt.Println("No detections recorded")
			return
		}
		for _, c := range counts {
			fmt.Printf("%-20s %d\n", c.ClassName, c.Count)
		}

	default:
		runs, err := repo.Recent(*limit)
		if err != nil {
			log.Fatalf("Failed to read runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return
		}
		for _, run := range runs {
			names := lo.Map(run.Detections, func(d model.Detection, _ int) string { return d.ClassName })
			fmt.Printf("#%d %s %s %dx%d %v [%s]\n",
				run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Filename,
				run.Width, run.Height, run.Duration, strings.Join(names, ", "))
		}
	}
}
