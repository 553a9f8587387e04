package hirez

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// schema is the vendor-side shape of an entity. Each one is decoded from a
// single JSON object and converted into its typed entity.
type schema[T any] interface {
	entity() T
}

// mapList converts a JSON sequence of objects into entities. An empty
// sequence is a valid, empty result.
func mapList[T any, S schema[T]](method string, body []byte) ([]T, error) {
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, &DecodeError{Method: method, Err: fmt.Errorf("expected a sequence, got %s", doc.Type)}
	}

	elems := doc.Array()
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		v, err := mapObject[T, S](elem)
		if err != nil {
			return nil, &DecodeError{Method: method, Err: fmt.Errorf("element %d: %w", i, err)}
		}
		out = append(out, v)
	}
	return out, nil
}

// mapOne converts a single object, or the first element of a sequence. ok is
// false for an empty sequence.
func mapOne[T any, S schema[T]](method string, body []byte) (v T, ok bool, err error) {
	doc := gjson.ParseBytes(body)
	switch {
	case doc.IsArray():
		elems := doc.Array()
		if len(elems) == 0 {
			return v, false, nil
		}
		doc = elems[0]
	case !doc.IsObject():
		return v, false, &DecodeError{Method: method, Err: fmt.Errorf("expected an object, got %s", doc.Type)}
	}

	v, err = mapObject[T, S](doc)
	if err != nil {
		return v, false, &DecodeError{Method: method, Err: err}
	}
	return v, true, nil
}

func mapObject[T any, S schema[T]](elem gjson.Result) (T, error) {
	var s S
	if !elem.IsObject() {
		var zero T
		return zero, fmt.Errorf("expected an object, got %s", elem.Type)
	}
	if err := json.Unmarshal([]byte(elem.Raw), &s); err != nil {
		var zero T
		return zero, err
	}
	return s.entity(), nil
}

// flexInt accepts a number, a numeric string or an empty string; the vendor
// is not consistent about which it sends for identifiers.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a string or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// boolish accepts true, "true", "y" and "yes" as set; anything else is unset.
type boolish bool

func (f *boolish) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(strings.Trim(string(b), `"`)) {
	case "true", "y", "yes", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

type limitsSchema struct {
	HrpObject
	ActiveSessions     int `json:"Active_Sessions"`
	ConcurrentSessions int `json:"Concurrent_Sessions"`
	RequestLimitDaily  int `json:"Request_Limit_Daily"`
	SessionCap         int `json:"Session_Cap"`
	SessionTimeLimit   int `json:"Session_Time_Limit"`
	TotalRequestsToday int `json:"Total_Requests_Today"`
	TotalSessionsToday int `json:"Total_Sessions_Today"`
}

func (s limitsSchema) entity() Limits {
	return Limits{
		HrpObject:          s.HrpObject,
		ActiveSessions:     s.ActiveSessions,
		ConcurrentSessions: s.ConcurrentSessions,
		RequestLimit:       s.RequestLimitDaily,
		SessionCap:         s.SessionCap,
		SessionTimeLimit:   s.SessionTimeLimit,
		TotalRequests:      s.TotalRequestsToday,
		TotalSessions:      s.TotalSessionsToday,
	}
}

type playerSchema struct {
	HrpObject
	ID                    flexInt          `json:"Id"`
	Name                  string           `json:"Name"`
	HzPlayerName          Nullable[string] `json:"hz_player_name"`
	Level                 int              `json:"Level"`
	MasteryLevel          int              `json:"MasteryLevel"`
	Wins                  int              `json:"Wins"`
	Losses                int              `json:"Losses"`
	Leaves                int              `json:"Leaves"`
	Region                Nullable[string] `json:"Region"`
	TeamID                flexInt          `json:"TeamId"`
	TeamName              Nullable[string] `json:"Team_Name"`
	TotalAchievements     int              `json:"Total_Achievements"`
	TotalWorshippers      int              `json:"Total_Worshippers"`
	PersonalStatusMessage Nullable[string] `json:"Personal_Status_Message"`
	AvatarURL             Nullable[string] `json:"Avatar_URL"`
	CreatedDatetime       Nullable[string] `json:"Created_Datetime"`
	LastLoginDatetime     Nullable[string] `json:"Last_Login_Datetime"`
}

func (s playerSchema) entity() Player {
	return Player{
		HrpObject:         s.HrpObject,
		ID:                int64(s.ID),
		Name:              s.Name,
		HirezName:         s.HzPlayerName,
		Level:             s.Level,
		MasteryLevel:      s.MasteryLevel,
		Wins:              s.Wins,
		Losses:            s.Losses,
		Leaves:            s.Leaves,
		Region:            s.Region,
		TeamID:            int64(s.TeamID),
		TeamName:          s.TeamName,
		TotalAchievements: s.TotalAchievements,
		TotalWorshippers:  s.TotalWorshippers,
		StatusMessage:     s.PersonalStatusMessage,
		AvatarURL:         s.AvatarURL,
		CreatedAt:         s.CreatedDatetime,
		LastLoginAt:       s.LastLoginDatetime,
	}
}

type friendSchema struct {
	HrpObject
	AccountID flexString       `json:"account_id"`
	PlayerID  flexString       `json:"player_id"`
	Name      string           `json:"name"`
	AvatarURL Nullable[string] `json:"avatar_url"`
	PortalID  Nullable[string] `json:"portal_id"`
	Status    string           `json:"status"`
}

func (s friendSchema) entity() Friend {
	return Friend{
		HrpObject: s.HrpObject,
		AccountID: string(s.AccountID),
		PlayerID:  string(s.PlayerID),
		Name:      s.Name,
		AvatarURL: s.AvatarURL,
		PortalID:  s.PortalID,
		Status:    s.Status,
	}
}

// characterRef carries the god or champion a row refers to. Smite and
// Paladins name the same columns differently.
type characterRef struct {
	God        Nullable[string] `json:"God"`
	GodID      flexInt          `json:"GodId"`
	Champion   Nullable[string] `json:"Champion"`
	ChampionID flexInt          `json:"ChampionId"`
}

func (r characterRef) resolve() (int64, string) {
	if r.Champion.Valid || r.ChampionID != 0 {
		return int64(r.ChampionID), r.Champion.Value
	}
	return int64(r.GodID), r.God.Value
}

type matchSchema struct {
	HrpObject
	characterRef
	Match      flexInt          `json:"Match"`
	PlayerName string           `json:"playerName"`
	Kills      int              `json:"Kills"`
	Deaths     int              `json:"Deaths"`
	Assists    int              `json:"Assists"`
	Gold       int              `json:"Gold"`
	Level      int              `json:"Level"`
	Minutes    int              `json:"Minutes"`
	Queue      Nullable[string] `json:"Queue"`
	MapGame    Nullable[string] `json:"Map_Game"`
	WinStatus  string           `json:"Win_Status"`
	MatchTime  string           `json:"Match_Time"`
}

func (s matchSchema) entity() Match {
	id, name := s.resolve()
	return Match{
		HrpObject:     s.HrpObject,
		MatchID:       int64(s.Match),
		PlayerName:    s.PlayerName,
		CharacterID:   id,
		CharacterName: name,
		Kills:         s.Kills,
		Deaths:        s.Deaths,
		Assists:       s.Assists,
		Gold:          s.Gold,
		Level:         s.Level,
		Minutes:       s.Minutes,
		Queue:         s.Queue,
		MapGame:       s.MapGame,
		WinStatus:     s.WinStatus,
		MatchTime:     s.MatchTime,
	}
}

type matchPlayerSchema struct {
	HrpObject
	Match         flexInt    `json:"Match"`
	PlayerID      flexString `json:"playerId"`
	PlayerName    string     `json:"playerName"`
	AccountLevel  int        `json:"Account_Level"`
	GodID         flexInt    `json:"GodId"`
	ChampionID    flexInt    `json:"ChampionId"`
	ReferenceName string     `json:"Reference_Name"`
	TaskForce     int        `json:"TaskForce"`
	KillsPlayer   int        `json:"Kills_Player"`
	Deaths        int        `json:"Deaths"`
	Assists       int        `json:"Assists"`
	DamagePlayer  int        `json:"Damage_Player"`
	GoldEarned    int        `json:"Gold_Earned"`
	Minutes       int        `json:"Minutes"`
	MapGame       string     `json:"Map_Game"`
	WinStatus     string     `json:"Win_Status"`
	EntryDatetime string     `json:"Entry_Datetime"`
}

func (s matchPlayerSchema) entity() MatchPlayer {
	characterID := int64(s.GodID)
	if s.ChampionID != 0 {
		characterID = int64(s.ChampionID)
	}
	return MatchPlayer{
		HrpObject:     s.HrpObject,
		MatchID:       int64(s.Match),
		PlayerID:      string(s.PlayerID),
		PlayerName:    s.PlayerName,
		AccountLevel:  s.AccountLevel,
		CharacterID:   characterID,
		CharacterName: s.ReferenceName,
		TaskForce:     s.TaskForce,
		Kills:         s.KillsPlayer,
		Deaths:        s.Deaths,
		Assists:       s.Assists,
		Damage:        s.DamagePlayer,
		Gold:          s.GoldEarned,
		Minutes:       s.Minutes,
		MapGame:       s.MapGame,
		WinStatus:     s.WinStatus,
		EntryTime:     s.EntryDatetime,
	}
}

type abilityItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

type abilitySchema struct {
	ID          flexInt `json:"Id"`
	Summary     string  `json:"Summary"`
	URL         string  `json:"URL"`
	Description struct {
		ItemDescription struct {
			Cooldown    string        `json:"cooldown"`
			Cost        string        `json:"cost"`
			Description string        `json:"description"`
			MenuItems   []abilityItem `json:"menuitems"`
			RankItems   []abilityItem `json:"rankitems"`
		} `json:"itemDescription"`
	} `json:"Description"`
}

func (s abilitySchema) ability(name string) Ability {
	item := s.Description.ItemDescription
	attrs := make([]AbilityAttribute, 0, len(item.MenuItems)+len(item.RankItems))
	for _, it := range append(item.MenuItems, item.RankItems...) {
		attrs = append(attrs, AbilityAttribute{
			Label: strings.TrimSuffix(strings.TrimSpace(it.Description), ":"),
			Value: strings.TrimSpace(it.Value),
		})
	}
	if name == "" {
		name = s.Summary
	}
	return Ability{
		ID:          int64(s.ID),
		Name:        name,
		Summary:     s.Summary,
		IconURL:     s.URL,
		Description: item.Description,
		Cooldown:    item.Cooldown,
		Cost:        item.Cost,
		Attributes:  attrs,
	}
}

// characterSchema is shared by getgods and getchampions. Abilities arrive as
// numbered columns, each a nested object plus a separate name column.
type characterSchema struct {
	HrpObject
	ID             flexInt `json:"id"`
	Name           string  `json:"Name"`
	Title          string  `json:"Title"`
	Roles          string  `json:"Roles"`
	Pantheon       string  `json:"Pantheon"`
	Lore           string  `json:"Lore"`
	Pros           string  `json:"Pros"`
	Cons           string  `json:"Cons"`
	Health         int     `json:"Health"`
	Speed          int     `json:"Speed"`
	OnFreeRotation boolish `json:"OnFreeRotation"`

	Ability1 string `json:"Ability1"`
	Ability2 string `json:"Ability2"`
	Ability3 string `json:"Ability3"`
	Ability4 string `json:"Ability4"`
	Ability5 string `json:"Ability5"`

	AbilityDetail1 *abilitySchema `json:"Ability_1"`
	AbilityDetail2 *abilitySchema `json:"Ability_2"`
	AbilityDetail3 *abilitySchema `json:"Ability_3"`
	AbilityDetail4 *abilitySchema `json:"Ability_4"`
	AbilityDetail5 *abilitySchema `json:"Ability_5"`
}

func (s characterSchema) character(iconURL string, latest boolish) Character {
	return Character{
		HrpObject:      s.HrpObject,
		ID:             int64(s.ID),
		Name:           strings.TrimSpace(s.Name),
		Title:          s.Title,
		Roles:          strings.TrimSpace(s.Roles),
		Pantheon:       s.Pantheon,
		Lore:           s.Lore,
		Pros:           strings.TrimSpace(s.Pros),
		Cons:           strings.TrimSpace(s.Cons),
		Health:         s.Health,
		Speed:          s.Speed,
		IconURL:        iconURL,
		OnFreeRotation: bool(s.OnFreeRotation),
		Latest:         bool(latest),
	}
}

type slotAbility struct {
	slot    int
	ability Ability
}

// abilities returns the present ability slots in order, numbered from 1.
func (s characterSchema) abilities() []slotAbility {
	details := []*abilitySchema{s.AbilityDetail1, s.AbilityDetail2, s.AbilityDetail3, s.AbilityDetail4, s.AbilityDetail5}
	names := []string{s.Ability1, s.Ability2, s.Ability3, s.Ability4, s.Ability5}

	var out []slotAbility
	for i, d := range details {
		if d == nil {
			continue
		}
		out = append(out, slotAbility{slot: i + 1, ability: d.ability(names[i])})
	}
	return out
}

type godSchema struct {
	characterSchema
	Type      string  `json:"Type"`
	Mana      int     `json:"Mana"`
	IconURL   string  `json:"godIcon_URL"`
	LatestGod boolish `json:"latestGod"`
}

func (s godSchema) entity() God {
	g := God{
		Character: s.character(s.IconURL, s.LatestGod),
		Type:      strings.TrimSpace(s.Type),
		Mana:      s.Mana,
		Abilities: []GodAbility{},
	}
	for _, a := range s.abilities() {
		g.Abilities = append(g.Abilities, GodAbility{Ability: a.ability, GodID: g.ID, Slot: a.slot})
	}
	return g
}

type championSchema struct {
	characterSchema
	IconURL        string  `json:"ChampionIcon_URL"`
	LatestChampion boolish `json:"latestChampion"`
}

func (s championSchema) entity() Champion {
	c := Champion{
		Character: s.character(s.IconURL, s.LatestChampion),
		Abilities: []ChampionAbility{},
	}
	for _, a := range s.abilities() {
		c.Abilities = append(c.Abilities, ChampionAbility{Ability: a.ability, ChampionID: c.ID, Slot: a.slot})
	}
	return c
}

type rankSchema struct {
	HrpObject
	PlayerID    flexString       `json:"player_id"`
	God         Nullable[string] `json:"god"`
	GodID       flexInt          `json:"god_id"`
	Champion    Nullable[string] `json:"champion"`
	ChampionID  flexInt          `json:"champion_id"`
	Rank        int              `json:"Rank"`
	Worshippers int              `json:"Worshippers"`
	Kills       Nullable[int]    `json:"Kills"`
	Deaths      Nullable[int]    `json:"Deaths"`
	Assists     Nullable[int]    `json:"Assists"`
	Wins        Nullable[int]    `json:"Wins"`
	Losses      Nullable[int]    `json:"Losses"`
	MinionKills Nullable[int]    `json:"MinionKills"`
}

func (s rankSchema) entity() Rank {
	id, name := int64(s.GodID), s.God.Value
	if s.Champion.Valid || s.ChampionID != 0 {
		id, name = int64(s.ChampionID), s.Champion.Value
	}
	return Rank{
		HrpObject:     s.HrpObject,
		PlayerID:      string(s.PlayerID),
		CharacterID:   id,
		CharacterName: name,
		Rank:          s.Rank,
		Worshippers:   s.Worshippers,
		Kills:         s.Kills,
		Deaths:        s.Deaths,
		Assists:       s.Assists,
		Wins:          s.Wins,
		Losses:        s.Losses,
		MinionKills:   s.MinionKills,
	}
}
