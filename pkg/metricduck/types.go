package metricduck

// MetricValue is a single recorded value for one metric. Dimension is nil
// for the plain current reading and set for statistical qualifiers such as
// Q.MED8 or TTM.YOY. Value is nil when the API has no data for the entry.
type MetricValue struct {
	Value     *float64 `json:"value"`
	Dimension *string  `json:"dimension"`
	Period    string   `json:"period,omitempty"`
}

// MetricSeries holds all recorded values for one metric of one company.
type MetricSeries struct {
	Values []MetricValue `json:"values"`
}

// Company is the per-ticker payload of a metrics response.
type Company struct {
	CompanyName string                  `json:"company_name"`
	Metrics     map[string]MetricSeries `json:"metrics"`
}

// MetricsResponse is the body of GET /data/metrics.
type MetricsResponse struct {
	Data map[string]Company `json:"data"`
}

// UniverseCompany is one entry of the ranked universe listing.
type UniverseCompany struct {
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	SIC         string `json:"sic"`
	Rank        int    `json:"rank"`
}

// UniverseResponse is the body of GET /companies/universe.
type UniverseResponse struct {
	Companies []UniverseCompany `json:"companies"`
}

// SyncRequest is the body of POST /screener/sync. Exactly one of Tickers
// and TopN selects the companies.
type SyncRequest struct {
	Format     string   `json:"format"`
	Metrics    []string `json:"metrics"`
	Tickers    []string `json:"tickers,omitempty"`
	TopN       int      `json:"top_n,omitempty"`
	DeltaSince string   `json:"delta_since,omitempty"`
}

// SyncCompany is one company snapshot in a sync response. Metrics carries a
// single latest value per metric id.
type SyncCompany struct {
	Ticker      string              `json:"ticker"`
	CompanyName string              `json:"company_name"`
	SIC         *string             `json:"sic"`
	CIK         *string             `json:"cik"`
	UpdatedAt   string              `json:"updated_at"`
	Metrics     map[string]*float64 `json:"metrics"`
}

// SyncCredits reports credit usage for a sync call.
type SyncCredits struct {
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// SyncScope describes how much data a sync covered.
type SyncScope struct {
	CompaniesCount int `json:"companies_count"`
	MetricsCount   int `json:"metrics_count"`
}

// SyncResponse is the body of POST /screener/sync.
type SyncResponse struct {
	SyncID    string        `json:"sync_id"`
	IsDelta   bool          `json:"is_delta"`
	Credits   SyncCredits   `json:"credits"`
	DataScope SyncScope     `json:"data_scope"`
	Data      []SyncCompany `json:"data"`
}

// SyncStatus is the body of GET /screener/sync/status.
type SyncStatus struct {
	Tier         string `json:"tier"`
	IsEnterprise bool   `json:"is_enterprise"`
	Limits       struct {
		MonthlyCredits int64 `json:"monthly_credits"`
	} `json:"limits"`
	Usage struct {
		SyncsUsedThisMonth int    `json:"syncs_used_this_month"`
		LastSync           string `json:"last_sync"`
	} `json:"usage"`
	Access struct {
		Universe string `json:"universe"`
		Metrics  string `json:"metrics"`
	} `json:"access"`
}
