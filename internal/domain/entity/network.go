package entity

import "time"

// NetworkDefinition holds the endpoints of one XRPL network.
type NetworkDefinition struct {
	Identifier       string   `json:"identifier" yaml:"identifier"`
	Name             string   `json:"name" yaml:"name"`
	NativeSymbol     string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	JSONRPCURLs      []string `json:"jsonRpcUrls" yaml:"jsonRpcUrls"`
	WebSocketURL     string   `json:"webSocketUrl" yaml:"webSocketUrl"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// ServerInfo is the normalized server_info response of a single node.
type ServerInfo struct {
	Endpoint             string  `json:"endpoint"`
	PublicKey            string  `json:"publicKey"`
	BuildVersion         string  `json:"buildVersion"`
	ServerState          string  `json:"serverState"`
	ValidatedLedgerIndex uint32  `json:"validatedLedgerIndex"`
	CompleteLedgers      string  `json:"completeLedgers"`
	Peers                int     `json:"peers"`
	LoadFactor           float64 `json:"loadFactor"`
	UptimeSeconds        int64   `json:"uptimeSeconds"`
}

// NodeStatus is one node entry of a network snapshot.
type NodeStatus struct {
	ServerInfo
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
	FirstSeen time.Time `json:"firstSeen"`
}

// NetworkSnapshot is rebuilt wholesale on every poll.
type NetworkSnapshot struct {
	Network     string       `json:"network"`
	TakenAt     time.Time    `json:"takenAt"`
	LedgerIndex uint32       `json:"ledgerIndex"`
	Nodes       []NodeStatus `json:"nodes"`
}

// LedgerEvent is a closed-ledger notification from the ledger stream.
type LedgerEvent struct {
	LedgerIndex uint32    `json:"ledgerIndex"`
	LedgerHash  string    `json:"ledgerHash"`
	TxnCount    int       `json:"txnCount"`
	ClosedAt    time.Time `json:"closedAt"`
}
