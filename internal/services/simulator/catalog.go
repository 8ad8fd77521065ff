package simulator

import (
	"fmt"
	"math/rand"
)

// Item is one purchasable catalog entry.
type Item struct {
	Type  string
	Name  string
	Price float64
}

// itemCatalog mirrors the in-game shop.
var itemCatalog = []Item{
	{"skin", "Dragon Armor", 9.99},
	{"weapon", "Legendary Sword", 14.99},
	{"currency", "1000 Gold", 4.99},
	{"skin", "Galaxy Wings", 19.99},
	{"weapon", "Fire Staff", 12.99},
	{"currency", "500 Gold", 2.99},
	{"skin", "Ice Crown", 24.99},
	{"weapon", "Shadow Blade", 16.99},
}

// matchTypeWeights skews the distribution toward team matches.
var matchTypeWeights = []string{"solo", "team", "team", "tournament"}

var serverRegions = []string{"us-east", "eu-west", "asia"}

var crashReasons = []string{
	"Server timeout",
	"Memory overflow",
	"Network disconnection",
	"Unexpected exception",
	"Database deadlock",
}

// chaosEvent is a synthetic operational failure reported to the backend's
// system event log.
type chaosEvent struct {
	Type     string
	Severity string
	Message  string
}

var chaosEvents = []chaosEvent{
	{"database_slow", "error", "Database query exceeded 5s"},
	{"api_timeout", "error", "API endpoint timed out"},
	{"memory_leak", "warning", "Memory usage at 85%"},
	{"network_partition", "critical", "Network connection lost"},
	{"disk_full", "critical", "Disk usage at 95%"},
	{"high_cpu", "warning", "CPU usage at 90%"},
}

var usernameAdjectives = []string{
	"swift", "grim", "lucky", "silent", "crimson", "frozen",
	"savage", "mystic", "rogue", "iron", "shadow", "storm",
}

var usernameNouns = []string{
	"falcon", "wolf", "viper", "titan", "reaper", "knight",
	"phoenix", "hunter", "golem", "raven", "drake", "warden",
}

func pickItem(rng *rand.Rand) Item {
	return itemCatalog[rng.Intn(len(itemCatalog))]
}

func pickMatchType(rng *rand.Rand) string {
	return matchTypeWeights[rng.Intn(len(matchTypeWeights))]
}

func pickRegion(rng *rand.Rand) string {
	return serverRegions[rng.Intn(len(serverRegions))]
}

func pickCrashReason(rng *rand.Rand) string {
	return crashReasons[rng.Intn(len(crashReasons))]
}

func pickChaosEvent(rng *rand.Rand) chaosEvent {
	return chaosEvents[rng.Intn(len(chaosEvents))]
}

// randomUsername generates a slot-scoped username. The slot and attempt
// suffix keeps regenerated names unique across retries.
func randomUsername(rng *rand.Rand, slot, attempt int) string {
	adj := usernameAdjectives[rng.Intn(len(usernameAdjectives))]
	noun := usernameNouns[rng.Intn(len(usernameNouns))]
	return fmt.Sprintf("%s_%s_%d_%d", adj, noun, slot, attempt)
}
