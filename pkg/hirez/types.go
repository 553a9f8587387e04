package hirez

import (
	"encoding/json"
	"time"
)

// Nullable marks a field the vendor may omit or send as null. Valid is false
// in both cases.
type Nullable[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

// Or returns the value, or def when it is absent.
func (n Nullable[T]) Or(def T) T {
	if !n.Valid {
		return def
	}
	return n.Value
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Nullable[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Nullable[T]{Value: v, Valid: true}
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// VendorTimeLayout is the layout of the raw datetime strings in responses.
const VendorTimeLayout = "1/2/2006 3:04:05 PM"

// ParseVendorTime parses a raw vendor datetime string as UTC.
func ParseVendorTime(s string) (time.Time, error) {
	return time.ParseInLocation(VendorTimeLayout, s, time.UTC)
}

// HrpObject holds the diagnostic field present on every vendor object. It is
// absent on successful responses.
type HrpObject struct {
	Message Nullable[string] `json:"ret_msg"`
}

// Limits is the developer's usage as reported by the vendor.
type Limits struct {
	HrpObject
	ActiveSessions     int `json:"active_sessions"`
	ConcurrentSessions int `json:"concurrent_sessions"`
	RequestLimit       int `json:"request_limit"`
	SessionCap         int `json:"session_cap"`
	// SessionTimeLimit is in minutes.
	SessionTimeLimit int `json:"session_time_limit"`
	TotalRequests    int `json:"total_requests"`
	TotalSessions    int `json:"total_sessions"`
}

// SessionsLeft returns how many sessions may still be created today.
func (l Limits) SessionsLeft() int {
	return max(l.SessionCap-l.TotalSessions, 0)
}

// RequestsLeft returns how many requests may still be made today.
func (l Limits) RequestsLeft() int {
	return max(l.RequestLimit-l.TotalRequests, 0)
}

type Player struct {
	HrpObject
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	HirezName         Nullable[string] `json:"hirez_name"`
	Level             int              `json:"level"`
	MasteryLevel      int              `json:"mastery_level"`
	Wins              int              `json:"wins"`
	Losses            int              `json:"losses"`
	Leaves            int              `json:"leaves"`
	Region            Nullable[string] `json:"region"`
	TeamID            int64            `json:"team_id"`
	TeamName          Nullable[string] `json:"team_name"`
	TotalAchievements int              `json:"total_achievements"`
	TotalWorshippers  int              `json:"total_worshippers"`
	StatusMessage     Nullable[string] `json:"status_message"`
	AvatarURL         Nullable[string] `json:"avatar_url"`
	CreatedAt         Nullable[string] `json:"created_at"`
	LastLoginAt       Nullable[string] `json:"last_login_at"`
}

type Friend struct {
	HrpObject
	AccountID string           `json:"account_id"`
	PlayerID  string           `json:"player_id"`
	Name      string           `json:"name"`
	AvatarURL Nullable[string] `json:"avatar_url"`
	PortalID  Nullable[string] `json:"portal_id"`
	Status    string           `json:"status"`
}

// Match is one entry of a player's match history.
type Match struct {
	HrpObject
	MatchID       int64            `json:"match_id"`
	PlayerName    string           `json:"player_name"`
	CharacterID   int64            `json:"character_id"`
	CharacterName string           `json:"character_name"`
	Kills         int              `json:"kills"`
	Deaths        int              `json:"deaths"`
	Assists       int              `json:"assists"`
	Gold          int              `json:"gold"`
	Level         int              `json:"level"`
	Minutes       int              `json:"minutes"`
	Queue         Nullable[string] `json:"queue"`
	MapGame       Nullable[string] `json:"map_game"`
	WinStatus     string           `json:"win_status"`
	MatchTime     string           `json:"match_time"`
}

// MatchPlayer is one participant's row in a match's details.
type MatchPlayer struct {
	HrpObject
	MatchID       int64  `json:"match_id"`
	PlayerID      string `json:"player_id"`
	PlayerName    string `json:"player_name"`
	AccountLevel  int    `json:"account_level"`
	CharacterID   int64  `json:"character_id"`
	CharacterName string `json:"character_name"`
	TaskForce     int    `json:"task_force"`
	Kills         int    `json:"kills"`
	Deaths        int    `json:"deaths"`
	Assists       int    `json:"assists"`
	Damage        int    `json:"damage"`
	Gold          int    `json:"gold"`
	Minutes       int    `json:"minutes"`
	MapGame       string `json:"map_game"`
	WinStatus     string `json:"win_status"`
	EntryTime     string `json:"entry_time"`
}

type AbilityAttribute struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Ability struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Summary     string             `json:"summary"`
	IconURL     string             `json:"icon_url"`
	Description string             `json:"description"`
	Cooldown    string             `json:"cooldown"`
	Cost        string             `json:"cost"`
	Attributes  []AbilityAttribute `json:"attributes"`
}

type GodAbility struct {
	Ability
	GodID int64 `json:"god_id"`
	Slot  int   `json:"slot"`
}

type ChampionAbility struct {
	Ability
	ChampionID int64 `json:"champion_id"`
	Slot       int   `json:"slot"`
}

// Character holds what gods and champions have in common.
type Character struct {
	HrpObject
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Title          string `json:"title"`
	Roles          string `json:"roles"`
	Pantheon       string `json:"pantheon"`
	Lore           string `json:"lore"`
	Pros           string `json:"pros"`
	Cons           string `json:"cons"`
	Health         int    `json:"health"`
	Speed          int    `json:"speed"`
	IconURL        string `json:"icon_url"`
	OnFreeRotation bool   `json:"on_free_rotation"`
	Latest         bool   `json:"latest"`
}

type God struct {
	Character
	Type      string       `json:"type"`
	Mana      int          `json:"mana"`
	Abilities []GodAbility `json:"abilities"`
}

type Champion struct {
	Character
	Abilities []ChampionAbility `json:"abilities"`
}

// Rank is a player's worshipper rank on one god or champion. The counters are
// absent for characters the player has not played in ranked queues.
type Rank struct {
	HrpObject
	PlayerID      string        `json:"player_id"`
	CharacterID   int64         `json:"character_id"`
	CharacterName string        `json:"character_name"`
	Rank          int           `json:"rank"`
	Worshippers   int           `json:"worshippers"`
	Kills         Nullable[int] `json:"kills"`
	Deaths        Nullable[int] `json:"deaths"`
	Assists       Nullable[int] `json:"assists"`
	Wins          Nullable[int] `json:"wins"`
	Losses        Nullable[int] `json:"losses"`
	MinionKills   Nullable[int] `json:"minion_kills"`
}
