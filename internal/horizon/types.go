package horizon

// Horizon REST payloads. Only the fields this service reads are declared.

const nativeAssetType = "native"

type balanceLine struct {
	AssetType string `json:"asset_type"`
	AssetCode string `json:"asset_code,omitempty"`
	Balance   string `json:"balance"`
}

type accountResponse struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	Sequence  string        `json:"sequence"`
	Balances  []balanceLine `json:"balances"`
}

type submitResponse struct {
	Hash       string `json:"hash"`
	Ledger     int32  `json:"ledger"`
	Successful *bool  `json:"successful,omitempty"`
}

// problem is Horizon's application/problem+json error body.
type problem struct {
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	Status int           `json:"status"`
	Detail string        `json:"detail"`
	Extras problemExtras `json:"extras"`
}

type problemExtras struct {
	Hash        string       `json:"hash,omitempty"`
	ResultXDR   string       `json:"result_xdr,omitempty"`
	ResultCodes *resultCodes `json:"result_codes,omitempty"`
}

type resultCodes struct {
	Transaction string   `json:"transaction"`
	Operations  []string `json:"operations,omitempty"`
}
