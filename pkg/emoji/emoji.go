package emoji

import "math/rand/v2"

var reactions = []string{
	"😀", "😃", "😄", "😁", "😆", "😅", "😂", "🤣", "😊", "😇",
	"🙂", "😉", "😍", "🥰", "😘", "😋", "😛", "😜", "🤪", "😎",
	"🤩", "🥳", "😏", "🤗", "🤭", "🤔", "😮", "😲", "🥺", "😢",
	"😭", "😤", "😡", "🤯", "😳", "🥶", "😱", "🤠", "🤡", "👻",
	"👽", "🤖", "💩", "😺", "🙈", "🙉", "🙊", "💯", "💥", "💫",
	"🔥", "✨", "🌟", "⭐", "🌈", "☀️", "🌸", "🌹", "🌻", "🍀",
	"🍕", "🍔", "🍟", "🍩", "🍰", "🍫", "☕", "🍻", "🎉", "🎊",
	"🎁", "🏆", "⚽", "🏀", "🎮", "🎧", "🎸", "🚀", "✈️", "🚗",
	"❤️", "🧡", "💛", "💚", "💙", "💜", "🖤", "🤍", "💖", "💕",
	"👍", "👏", "🙌", "🙏", "💪", "👌", "✌️", "🤞", "👀", "🫶",
}

// Random returns one reaction emoji picked uniformly at random.
func Random() string {
	return reactions[rand.IntN(len(reactions))]
}

// All returns a copy of the reaction set.
func All() []string {
	return append([]string(nil), reactions...)
}
