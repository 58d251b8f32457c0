package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/Shopify/go-lua"
)

const (
	scenarioTypeName = "scenario"
	gardenerTypeName = "scenario.gardener"
)

// Scenario is a parsed scenario script: a named sequence of steps.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// gardenerRef is the handle returned by scene:gardener. Its methods append
// steps with the gardener already bound as the acting party.
type gardenerRef struct {
	scenario *Scenario
	name     string
}

// LoadScenarioFromFile runs a Lua scenario script and returns the scenario
// it builds. The script must return the scenario userdata. An unnamed
// scenario takes the file's base name.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerScenarioTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load scenario file: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run scenario file: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		return nil, errors.New("scenario file must return a scenario")
	}
	scenario, ok := state.ToUserData(-1).(*Scenario)
	if !ok {
		return nil, errors.New("scenario file must return a scenario")
	}
	if scenario.Name == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerScenarioTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	lua.NewMetaTable(state, gardenerTypeName)
	state.NewTable()
	lua.SetFunctions(state, gardenerMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("Scenario")
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "gardener", Function: scenarioGardener},
	{Name: "as", Function: sceneStep("as", requireName("gardener name is required"))},
	{Name: "water", Function: sceneStep("water", nil)},
	{Name: "shake", Function: sceneStep("shake", nil)},
	{Name: "search", Function: sceneStep("search", nil)},
	{Name: "fertilize", Function: sceneStep("fertilize", nil)},
	{Name: "harvest", Function: sceneStep("harvest", nil)},
	{Name: "rename", Function: sceneStep("rename", requireName("plant name is required"))},
	{Name: "buy", Function: sceneStep("buy", requireItem)},
	{Name: "advance", Function: sceneStep("advance", requireAdvance)},
	{Name: "expect_stage", Function: sceneStep("expect_stage", requireStage)},
	{Name: "expect_dead", Function: sceneStep("expect_dead", nil)},
	{Name: "expect_generation", Function: sceneStep("expect_generation", requireGeneration)},
	{Name: "expect_coins", Function: sceneStep("expect_coins", requireCoinsBound)},
}

var gardenerMethods = []lua.RegistryFunction{
	{Name: "water", Function: gardenerStep("water", nil)},
	{Name: "shake", Function: gardenerStep("shake", nil)},
	{Name: "search", Function: gardenerStep("search", nil)},
	{Name: "fertilize", Function: gardenerStep("fertilize", nil)},
	{Name: "harvest", Function: gardenerStep("harvest", nil)},
	{Name: "rename", Function: gardenerStep("rename", requireName("plant name is required"))},
	{Name: "buy", Function: gardenerStep("buy", requireItem)},
	{Name: "expect_stage", Function: gardenerStep("expect_stage", requireStage)},
	{Name: "expect_dead", Function: gardenerStep("expect_dead", nil)},
	{Name: "expect_generation", Function: gardenerStep("expect_generation", requireGeneration)},
	{Name: "expect_coins", Function: gardenerStep("expect_coins", requireCoinsBound)},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

// scenarioGardener appends a registration step and returns a handle whose
// methods act as the new gardener.
func scenarioGardener(state *lua.State) int {
	scenario := checkScenario(state)
	args := requiredTable(state, 2)
	name := requiredString(args, "name")
	if name == "" {
		lua.Errorf(state, "gardener name is required")
		return 0
	}
	appendStep(scenario, "gardener", args)

	state.PushUserData(&gardenerRef{scenario: scenario, name: name})
	lua.SetMetaTableNamed(state, gardenerTypeName)
	return 1
}

// sceneStep builds a scene method that appends one step from its optional
// argument table.
func sceneStep(kind string, validate func(*lua.State, map[string]any)) func(*lua.State) int {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		args := optionalTable(state, 2)
		if validate != nil {
			validate(state, args)
		}
		appendStep(scenario, kind, args)
		return 0
	}
}

// gardenerStep builds a handle method: same as sceneStep but with the
// handle's gardener bound as the actor. The handle is returned so calls
// chain.
func gardenerStep(kind string, validate func(*lua.State, map[string]any)) func(*lua.State) int {
	return func(state *lua.State) int {
		ref := checkGardener(state)
		args := optionalTable(state, 2)
		args["as"] = ref.name
		if validate != nil {
			validate(state, args)
		}
		appendStep(ref.scenario, kind, args)

		// Push the handle back so calls chain.
		state.PushUserData(ref)
		lua.SetMetaTableNamed(state, gardenerTypeName)
		return 1
	}
}

func requireName(message string) func(*lua.State, map[string]any) {
	return func(state *lua.State, args map[string]any) {
		if requiredString(args, "name") == "" {
			lua.Errorf(state, "%s", message)
		}
	}
}

func requireItem(state *lua.State, args map[string]any) {
	if requiredString(args, "item") == "" {
		lua.Errorf(state, "item is required")
	}
}

func requireStage(state *lua.State, args map[string]any) {
	if requiredString(args, "stage") == "" {
		lua.Errorf(state, "stage is required")
	}
}

func requireGeneration(state *lua.State, args map[string]any) {
	if _, ok := readInt(args, "generation"); !ok {
		lua.Errorf(state, "generation is required")
	}
}

func requireAdvance(state *lua.State, args map[string]any) {
	if advanceDuration(args) <= 0 {
		lua.Errorf(state, "advance needs days or hours")
	}
}

func requireCoinsBound(state *lua.State, args map[string]any) {
	_, atLeast := readInt(args, "at_least")
	_, exactly := readInt(args, "exactly")
	if !atLeast && !exactly {
		lua.Errorf(state, "expect_coins needs at_least or exactly")
	}
}

func checkScenario(state *lua.State) *Scenario {
	if scenario, ok := lua.CheckUserData(state, 1, scenarioTypeName).(*Scenario); ok {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func checkGardener(state *lua.State) *gardenerRef {
	if ref, ok := lua.CheckUserData(state, 1, gardenerTypeName).(*gardenerRef); ok {
		return ref
	}
	lua.ArgumentError(state, 1, "gardener expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, args map[string]any) {
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: args})
}

func requiredTable(state *lua.State, index int) map[string]any {
	lua.CheckType(state, index, lua.TypeTable)
	return tableToMap(state, index)
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	index = state.AbsIndex(index)
	result := map[string]any{}
	state.PushNil()
	for state.Next(index) {
		if key, ok := state.ToString(-2); ok {
			result[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return result
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo converts a nested table, keeping dense integer-keyed tables as
// slices.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	count := 0
	maxIndex := 0
	result := map[string]any{}

	state.PushNil()
	for state.Next(index) {
		count++
		if key, ok := state.ToString(-2); ok {
			result[key] = luaToGo(state, -1)
		}
		if state.TypeOf(-2) == lua.TypeNumber {
			if n, ok := state.ToNumber(-2); ok {
				if i := int(n); float64(i) == n && i > maxIndex {
					maxIndex = i
				}
			}
		}
		state.Pop(1)
	}

	if count > 0 && count == maxIndex {
		list := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			list = append(list, luaToGo(state, -1))
			state.Pop(1)
		}
		return list
	}
	return result
}

func normalizeNumber(value float64) any {
	if value == float64(int(value)) {
		return int(value)
	}
	return value
}
