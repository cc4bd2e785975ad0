package tools

// Default returns the tool set wired for the example agent.
func Default() *Set {
	return NewSet(RandomColorDefinition, RandomNumberDefinition)
}
