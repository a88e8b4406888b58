// cmd/seed/main.go
//
// Seeds the catalog with the per-department starter collection. Safe to
// run repeatedly: books are keyed on (title, author) and existing rows are
// left alone.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"campuslib/internal/config"
	"campuslib/internal/store"
)

type seedBook struct {
	Title       string
	Author      string
	Description string
}

var departmentBooks = map[string][]seedBook{
	"School of Engineering and Technology (SOET)": {
		{"Introduction to Algorithms", "Thomas H. Cormen", "A comprehensive guide to understanding algorithms in computer science."},
		{"Clean Code", "Robert C. Martin", "A handbook of agile software craftsmanship that emphasizes writing clean, maintainable code."},
		{"Computer Networks", "Andrew S. Tanenbaum", "A comprehensive introduction to computer networks and their protocols."},
		{"Operating System Concepts", "Abraham Silberschatz", "A guide to understanding operating systems principles and practice."},
		{"The Pragmatic Programmer", "Andrew Hunt", "Journey to mastery in the programming profession."},
	},
	"School of Management and Commerce (SOMC)": {
		{"Principles of Marketing", "Philip Kotler", "The classic marketing textbook that explores core marketing concepts."},
		{"Financial Management", "Prasanna Chandra", "A comprehensive guide to financial management principles."},
		{"Strategic Management", "A. A. Thompson", "Concepts and cases in strategic management for business students."},
		{"Supply Chain Management", "Sunil Chopra", "Strategy, planning, and operation of supply chains."},
	},
	"School of Law (SOL)": {
		{"Introduction to Indian Constitution", "Durga Das Basu", "A comprehensive introduction to the Indian Constitution."},
		{"Law of Contracts", "Avtar Singh", "A comprehensive guide to contract law principles and practice."},
		{"Law of Evidence", "Batuk Lal", "Rules and principles governing admissibility of evidence in court."},
	},
	"School of Humanities and Social Sciences (SHSS)": {
		{"Social Psychology", "David G. Myers", "Exploring how thoughts, feelings, and behaviors are influenced by others."},
		{"Political Theory", "Andrew Heywood", "Introduction to key concepts and ideologies in political science."},
		{"Research Methodology", "C. R. Kothari", "Methods and techniques for social science research."},
	},
	"School of Sciences (SOS)": {
		{"Concepts of Physics", "H. C. Verma", "Fundamental physics concepts with solved problems."},
		{"Organic Chemistry", "Morrison and Boyd", "A classic text covering the principles of organic chemistry."},
		{"Principles of Genetics", "D. Peter Snustad", "Foundations of classical and molecular genetics."},
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	inserted := 0
	for category, books := range departmentBooks {
		for _, b := range books {
			res, err := db.ExecContext(ctx, `
				INSERT INTO books (id, title, author, category, description, available, created_at)
				SELECT gen_random_uuid(), $1, $2, $3, $4, true, NOW()
				WHERE NOT EXISTS (
					SELECT 1 FROM books WHERE title = $1 AND author = $2
				)
			`, b.Title, b.Author, category, b.Description)
			if err != nil {
				slog.Error("failed to seed book", "title", b.Title, "error", err)
				os.Exit(1)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
	}

	slog.Info("seeding complete", "inserted", inserted)
}
