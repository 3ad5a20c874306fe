package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/chineduogbonna/marketpay/internal/repository"
)

type Repositories struct {
	Wallets   repo.Wallets
	Ledger    repo.Ledger
	Escrows   repo.Escrows
	Schedules repo.Schedules
	Plans     repo.Plans
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Wallets:   &walletsRepo{pool},
		Ledger:    &ledgerRepo{pool},
		Escrows:   &escrowsRepo{pool},
		Schedules: &schedulesRepo{pool},
		Plans:     &plansRepo{pool},
	}
}
