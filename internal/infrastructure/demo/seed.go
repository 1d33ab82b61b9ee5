// Package demo seeds an in-memory store with a small sample book so the
// service can be explored without Postgres or Redis.
package demo

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Book struct {
		Name     string `yaml:"name"`
		Currency string `yaml:"currency"`
	} `yaml:"book"`
	Accounts []seedAccount `yaml:"accounts"`
	Entries  []seedEntry   `yaml:"entries"`
}

type seedAccount struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	InitialBalance string `yaml:"initial_balance"`
}

type seedEntry struct {
	Date        string     `yaml:"date"`
	Description string     `yaml:"description"`
	Payee       string     `yaml:"payee"`
	Tags        []string   `yaml:"tags"`
	Lines       []seedLine `yaml:"lines"`
}

type seedLine struct {
	Account   string `yaml:"account"`
	Direction string `yaml:"direction"`
	Amount    string `yaml:"amount"`
}

// Result describes what Seed created.
type Result struct {
	BookID   string
	LedgerID string
	Actor    domain.Actor
}

// Seed loads the embedded sample data through the regular use cases, so the
// seeded state is exactly what the API would have produced.
func Seed(
	ctx context.Context,
	bookUC *usecase.BookUseCase,
	accountUC *usecase.AccountUseCase,
	entryUC *usecase.EntryUseCase,
) (*Result, error) {
	var file seedFile
	if err := yaml.Unmarshal(seedYAML, &file); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	actor := domain.Actor{ID: "demo-user", Role: domain.RoleOwner}

	book, err := bookUC.CreateBook(ctx, usecase.CreateBookInput{
		Actor:           actor,
		Name:            file.Book.Name,
		DefaultCurrency: file.Book.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("seed book: %w", err)
	}

	accountIDs := make(map[string]string, len(file.Accounts))

	for _, spec := range file.Accounts {
		input := usecase.AddAccountInput{
			Actor:    actor,
			LedgerID: book.MainLedgerID,
			Name:     spec.Name,
			Type:     domain.AccountType(spec.Type),
		}

		if spec.InitialBalance != "" {
			balance, err := decimal.NewFromString(spec.InitialBalance)
			if err != nil {
				return nil, fmt.Errorf("seed account %q: %w", spec.Name, err)
			}
			input.InitialBalance = balance
		}

		account, err := accountUC.AddAccount(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("seed account %q: %w", spec.Name, err)
		}
		accountIDs[spec.Name] = account.ID
	}

	for _, spec := range file.Entries {
		date, err := domain.ParseDate(spec.Date)
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", spec.Description, err)
		}

		lines := make([]usecase.LineInput, 0, len(spec.Lines))
		for _, line := range spec.Lines {
			accountID, ok := accountIDs[line.Account]
			if !ok {
				return nil, fmt.Errorf("seed entry %q: unknown account %q", spec.Description, line.Account)
			}

			major, err := decimal.NewFromString(line.Amount)
			if err != nil {
				return nil, fmt.Errorf("seed entry %q: %w", spec.Description, err)
			}

			money, err := domain.MoneyFromDecimal(major, file.Book.Currency)
			if err != nil {
				return nil, fmt.Errorf("seed entry %q: %w", spec.Description, err)
			}

			lines = append(lines, usecase.LineInput{
				AccountID: accountID,
				Direction: domain.Direction(line.Direction),
				Amount:    money.Amount,
			})
		}

		_, err = entryUC.AddEntry(ctx, usecase.AddEntryInput{
			Actor:    actor,
			LedgerID: book.MainLedgerID,
			Date:     date,
			EntryDraft: usecase.EntryDraft{
				Description: spec.Description,
				Payee:       spec.Payee,
				Tags:        spec.Tags,
				Lines:       lines,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", spec.Description, err)
		}
	}

	return &Result{
		BookID:   book.ID,
		LedgerID: book.MainLedgerID,
		Actor:    actor,
	}, nil
}
