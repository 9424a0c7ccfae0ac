package nickname

import (
	"crypto/rand"
	"math/big"

	"github.com/gosimple/slug"
)

// Word lists for generating child-friendly display names
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "swift", "clever", "jolly", "mighty",
	"lucky", "magic", "bouncy", "cheerful", "daring", "gentle", "jazzy", "kindly",
	"lively", "merry", "perky", "snappy", "zippy", "cosmic", "groovy", "curious",
}

var animals = []string{
	"otter", "tiger", "eagle", "dolphin", "panda", "lion", "koala", "bear",
	"fox", "owl", "turtle", "penguin", "rabbit", "giraffe", "zebra", "hedgehog",
	"llama", "walrus", "badger", "parrot", "squirrel", "beaver", "lemur", "puffin",
}

// AvatarColors are the colors offered for child avatars
var AvatarColors = []string{
	"#4A90E2", "#F5A623", "#7ED321", "#D0021B", "#9013FE", "#50E3C2", "#F8E71C", "#FF6F91",
}

// MaxLength is the longest nickname Normalize returns
const MaxLength = 40

// Generate returns a random nickname in the form "adjective-animal"
func Generate() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	animal, err := randomElement(animals)
	if err != nil {
		return "", err
	}

	return adjective + "-" + animal, nil
}

// Normalize turns a parent-chosen nickname into a lowercase, URL-safe form.
// It returns an empty string when nothing usable remains.
func Normalize(input string) string {
	s := slug.Make(input)
	if len(s) > MaxLength {
		s = s[:MaxLength]
		for len(s) > 0 && s[len(s)-1] == '-' {
			s = s[:len(s)-1]
		}
	}
	return s
}

// RandomAvatarColor picks one of AvatarColors
func RandomAvatarColor() (string, error) {
	return randomElement(AvatarColors)
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
