package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jeu vidéo 0", "jeu-video-0"},
		{"Video Game 49", "video-game-49"},
		{"  The Legend of Zelda: Breath of the Wild  ", "the-legend-of-zelda-breath-of-the-wild"},
		{"Pokémon -- Édition Rouge!", "pokemon-edition-rouge"},
		{"", ""},
		{"***", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Make(tt.in))
		})
	}
}
