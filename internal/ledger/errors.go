package ledger

import "errors"

var (
	ErrMarketNotFound  = errors.New("market not found")
	ErrWagerNotFound   = errors.New("wager not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrFundingNotFound = errors.New("funding request not found")

	// validação de aposta
	ErrStakeNotPositive    = errors.New("stake must be positive")
	ErrStakeBelowMinimum   = errors.New("stake below minimum")
	ErrStakeAboveMaximum   = errors.New("stake above maximum")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidSelection    = errors.New("selection is not a side of this market")
	ErrMarketClosed        = errors.New("market is finished")

	// validação de mercado
	ErrInvalidOdds       = errors.New("odds must be positive")
	ErrMissingStartTime  = errors.New("start time required")
	ErrMissingTeams      = errors.New("two distinct team names required")
	ErrInvalidTransition = errors.New("invalid status transition")

	// liquidação
	ErrInvalidWinner         = errors.New("winner is not a side of this market")
	ErrWinnerAlreadyDeclared = errors.New("market already settled with a different winner")

	// carteira / funding
	ErrAmountNotPositive      = errors.New("amount must be positive")
	ErrBelowMinimumWithdrawal = errors.New("amount below minimum withdrawal")
	ErrInvalidPayoutMethod    = errors.New("payout method must be UPI or BANK")
	ErrAlreadyResolved        = errors.New("funding request already resolved")
)

// IsValidation indica erros causados pelo payload do cliente (HTTP 400)
func IsValidation(err error) bool {
	for _, e := range []error{
		ErrStakeNotPositive, ErrStakeBelowMinimum, ErrStakeAboveMaximum, ErrInvalidSelection,
		ErrInvalidOdds, ErrMissingStartTime, ErrMissingTeams, ErrInvalidWinner,
		ErrAmountNotPositive, ErrBelowMinimumWithdrawal, ErrInvalidPayoutMethod,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsNotFound indica registro inexistente (HTTP 404)
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMarketNotFound) || errors.Is(err, ErrWagerNotFound) ||
		errors.Is(err, ErrWalletNotFound) || errors.Is(err, ErrFundingNotFound)
}

// IsConflict indica conflito de estado ou saldo (HTTP 409)
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrMarketClosed) ||
		errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrWinnerAlreadyDeclared) ||
		errors.Is(err, ErrAlreadyResolved)
}
