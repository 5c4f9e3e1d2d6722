package dto

type WalletResponse struct {
	UserID        string `json:"userId"`
	WalletID      string `json:"walletId"`
	BalancePoints int64  `json:"balance_points"`
}
