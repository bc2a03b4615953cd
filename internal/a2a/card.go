package a2a

import (
	"github.com/a2aproject/a2a-go/a2a"
)

// BuildAgentCard describes the custody agent to A2A peers.
func BuildAgentCard(baseURL, version string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               "AIUSD Agent",
		Description:        "Conversational agent for AIUSD custody accounts. Checks balances, moves assets from custody to the user's wallet and recognizes user intents.",
		URL:                baseURL + "/a2a",
		Version:            version,
		ProtocolVersion:    "1.0",
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "custody",
				Name:        "custody",
				Description: "Balance queries and withdrawals through the custody tool server",
				Tags:        []string{"custody", "withdraw", "balance"},
			},
		},
		SecuritySchemes: a2a.NamedSecuritySchemes{
			"bearer": a2a.HTTPAuthSecurityScheme{
				Scheme:      "bearer",
				Description: "Bearer token authentication",
			},
		},
		Security: []a2a.SecurityRequirements{
			{a2a.SecuritySchemeName("bearer"): a2a.SecuritySchemeScopes{}},
		},
	}
}
