package main

import (
	"log"
	"os"
	"time"

	"ai-lawyer-be/internal/constant"
	"ai-lawyer-be/internal/model"
	"ai-lawyer-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds the built-in research personas. Safe to re-run: existing
// personas are matched by name and left untouched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	personas := []model.Agent{
		{
			Id:            uuid.New(),
			Name:          "Legal Researcher",
			Description:   "General-purpose legal research over your collections and Belgian case law.",
			SystemPrompt:  constant.DefaultAgentSystemPrompt,
			MaxIterations: 15,
			CreatedAt:     time.Now(),
		},
		{
			Id:          uuid.New(),
			Name:        "Case Law Analyst",
			Description: "Focused on jurisprudence: finds and compares decisions, always cites ECLIs.",
			SystemPrompt: `You are a case-law analyst. Use the case-law search tool for every question; do not answer from memory.

RULES:
1. Always cite decisions by their ECLI.
2. When comparing decisions, quote the relevant passages from the retrieved snippets.
3. If no relevant decision is found, say so explicitly.
4. You are not a lawyer and must not give binding legal advice.`,
			MaxIterations: 15,
			CreatedAt:     time.Now(),
		},
	}

	created, skipped := 0, 0
	for _, persona := range personas {
		var count int64
		if err := db.Model(&model.Agent{}).
			Where("name = ? AND user_id IS NULL", persona.Name).
			Count(&count).Error; err != nil {
			color.Red("✗ Failed to check persona %q: %v", persona.Name, err)
			continue
		}
		if count > 0 {
			color.Yellow("- Persona %q already exists, skipping", persona.Name)
			skipped++
			continue
		}

		if err := db.Create(&persona).Error; err != nil {
			color.Red("✗ Failed to create persona %q: %v", persona.Name, err)
			continue
		}
		color.Green("✓ Created persona %q", persona.Name)
		created++
	}

	color.Cyan("Seeding done: %d created, %d skipped", created, skipped)
}
