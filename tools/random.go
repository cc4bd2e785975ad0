package tools

import (
	"context"
	"math/rand/v2"
)

var colors = []string{"red", "green", "blue", "yellow", "purple", "orange", "brown", "black", "white"}

// maxRandomNumber is the inclusive upper bound of get_number.
const maxRandomNumber = 100

var RandomColorDefinition = New("get_color", "Select and return a random color", RandomColor)

var RandomNumberDefinition = New("get_number", "Select and return a random number integer", RandomNumber)

// RandomColor picks one of a fixed palette.
func RandomColor(_ context.Context, _ struct{}) (any, error) {
	return colors[rand.IntN(len(colors))], nil
}

// RandomNumber returns an integer in [0, 100].
func RandomNumber(_ context.Context, _ struct{}) (any, error) {
	return rand.IntN(maxRandomNumber + 1), nil
}
