package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/domain"
)

func validDescription() *domain.TreeDescription {
	return &domain.TreeDescription{
		Name: "game",
		Main: "lobby",
		States: []domain.StateDescription{
			{Name: "root", Children: []string{"lobby", "match"}},
			{Name: "lobby"},
			{Name: "match", Systems: []domain.SystemDescription{
				{Name: "frames", Type: "counter"},
			}},
		},
	}
}

func TestValidateDescription_Valid(t *testing.T) {
	require.NoError(t, validator.ValidateDescription(validDescription()))
}

func TestValidateDescription_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.TreeDescription)
		want   string
	}{
		{
			name: "duplicate state",
			mutate: func(d *domain.TreeDescription) {
				d.States = append(d.States, domain.StateDescription{Name: "lobby"})
			},
			want: `state "lobby" declared twice`,
		},
		{
			name: "unknown child",
			mutate: func(d *domain.TreeDescription) {
				d.States[0].Children = append(d.States[0].Children, "ghost")
			},
			want: `unknown child "ghost"`,
		},
		{
			name: "two parents",
			mutate: func(d *domain.TreeDescription) {
				d.States = append(d.States, domain.StateDescription{
					Name: "other", Children: []string{"lobby"},
				})
			},
			want: `claimed as child by both`,
		},
		{
			name:   "missing main",
			mutate: func(d *domain.TreeDescription) { d.Main = "ghost" },
			want:   `main state "ghost" does not exist`,
		},
		{
			name:   "non-leaf main",
			mutate: func(d *domain.TreeDescription) { d.Main = "root" },
			want:   `main state "root" is not a leaf`,
		},
		{
			name: "duplicate system instance",
			mutate: func(d *domain.TreeDescription) {
				d.States[1].Systems = []domain.SystemDescription{
					{Name: "frames", Type: "counter"},
				}
			},
			want: `system instance "frames" declared in both`,
		},
		{
			name: "empty system type",
			mutate: func(d *domain.TreeDescription) {
				d.States[1].Systems = []domain.SystemDescription{{Name: "x"}}
			},
			want: `system with empty type`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := validDescription()
			tt.mutate(desc)
			err := validator.ValidateDescription(desc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateDescription_CollectsAllProblems(t *testing.T) {
	desc := validDescription()
	desc.Main = "ghost"
	desc.States[0].Children = append(desc.States[0].Children, "phantom")

	err := validator.ValidateDescription(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s)")
}

func TestValidateDescription_NoLeaves(t *testing.T) {
	// A description with no explicit main needs at least one leaf to
	// serve as the default state.
	desc := &domain.TreeDescription{
		Name: "loop",
		States: []domain.StateDescription{
			{Name: "a", Children: []string{"b"}},
			{Name: "b", Children: []string{"a"}},
		},
	}
	err := validator.ValidateDescription(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no leaf states")
}
