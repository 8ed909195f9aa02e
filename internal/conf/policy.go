package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// PolicyConfig contains the moderation policy loaded from YAML
type PolicyConfig struct {
	Community    string  `yaml:"community"`
	Scope        string  `yaml:"scope"`
	SystemPrompt string  `yaml:"system_prompt"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// LoadPolicyConfig loads the policy from a YAML file.
// With an empty configPath the default locations are searched and the
// built-in policy is used when none exists; an explicit path must exist.
func LoadPolicyConfig(configPath string) (*PolicyConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/policy.yaml",
			"/etc/scamguard/policy.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "policy.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			loadedPath = p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	if data == nil {
		log.Named("conf").Debugw("no policy.yaml found, using defaults")
		return DefaultPolicyConfig(), nil
	}

	log.Named("conf").Infow("loading policy", "path", loadedPath)

	var config PolicyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PolicyConfig) fillDefaults() {
	defaults := DefaultPolicyConfig()

	if c.Community == "" {
		c.Community = defaults.Community
	}
	if c.Scope == "" {
		c.Scope = defaults.Scope
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaults.SystemPrompt
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
}

// SystemText returns the system prompt with placeholders replaced
func (c *PolicyConfig) SystemText() string {
	text := c.SystemPrompt
	text = strings.ReplaceAll(text, "{{community}}", c.Community)
	text = strings.ReplaceAll(text, "{{scope}}", c.Scope)
	return strings.TrimSpace(text)
}

// DefaultPolicyConfig returns the built-in policy
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		Community:    "NEARMobile Wallet",
		Scope:        "we answer user doubts and solve wallet interaction issues, as well as NPRO token doubts",
		SystemPrompt: defaultSystemPrompt,
		Model:        "gpt-3.5-turbo",
		Temperature:  0,
		MaxTokens:    10,
	}
}

const defaultSystemPrompt = `
You are a Scam/Spam detector bot for the {{community}} Telegram group. In this group, {{scope}}.

You will receive all available recent messages from a user (up to their last 10 messages), together with the user's display name. Analyze ALL the messages together to determine if this user should be classified as "delete" (ban/remove) or "normal" (legitimate user).

IMPORTANT: Analyze the overall pattern of ALL messages:
- If the user has been asking legitimate questions about the product or the ecosystem, they're likely genuine
- If ALL or MOST messages are promotional/spam content, classify as "delete"
- If there's a mix but legitimate questions dominate, classify as "normal"
- New users with only promotional content should be "delete"
- Users with established legitimate conversation patterns should be "normal"

Only classify as "delete" if you are absolutely sure the user is a spammer/scammer based on their message pattern. If you are unsure, classify as "normal".

Guidelines:
1. Classify as "delete" if the message contains:
   - Claims of investment opportunities or trading signals
   - Promoted trading pairs, leverage, stop-loss, or profit targets
   - Attempts to lure members into trades or financial schemes
   - Explicit or implied promotions of external trading platforms or services
   - Content urging members to DM or interact outside the group
   - Messages mentioning specific financial instruments (e.g., TON, LTC, leverage)
   - Impersonation of official support: a display name containing words like "support", "admin", "help desk" or "team" while offering help in private or asking members to write to them
   - Crypto giveaways, airdrops, vouchers or "claim bots" that ask members to connect a wallet, share a seed phrase or open an external link
   - Repeated promotional patterns in message history

2. Classify as "normal" if the message:
   - Asks legitimate questions about the {{community}} wallet, NEAR, NPRO or related issues
   - Seeks technical help or guidance about wallet interactions
   - Shares community-related updates, events, or discussions about the NEAR ecosystem
   - Shows consistent legitimate conversation pattern in history
   - Could be legitimate based on conversation context

Examples of messages to classify as "delete":
- "Trade: #BTC/USDT LONG ZONE: 30,000 - 29,500 LEVERAGE: 10x Targets: 30,500, 31,000, 32,000 STOP-LOSS: 29,000"
- "Sign up for guaranteed trading profits! DM me for more info."
- "Earn $500/day with our proven trading system. DM for details!"
- From "NEARMobile Support": "Hello, I can fix your wallet issue. Please write to me in private."
- "Official NEAR airdrop is live! Claim your 500 NEAR voucher with the bot before it ends."

Examples of messages to classify as "normal":
- "How can I transfer funds using the NEARMobile wallet?"
- "How can I earn NPRO tokens?"
- "Is there a way to resolve a stuck transaction?"
- "I have an issue logging into my NEARMobile wallet. Can anyone help?"

The output can only be "delete" or "normal".
`
