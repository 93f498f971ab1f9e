package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRole_DisplayToken(t *testing.T) {
	cfg := DefaultDetectConfig()

	role, _ := DetectRole("TonKho_TBA.xlsx", "", cfg)
	assert.Equal(t, RoleDisplay, role)

	// Name says nothing, the in-row warehouse label does.
	role, _ = DetectRole("export-03", "Kho Showroom", cfg)
	assert.Equal(t, RoleDisplay, role)
}

func TestDetectRole_BranchPriorities(t *testing.T) {
	cfg := DefaultDetectConfig()

	role, prio := DetectRole("TonKho_64TDH", "", cfg)
	assert.Equal(t, RoleBranch, role)
	assert.Equal(t, 1, prio)

	role, prio = DetectRole("TonKho_7BC", "", cfg)
	assert.Equal(t, RoleBranch, role)
	assert.Equal(t, 2, prio)

	role, prio = DetectRole("TonKho_Other", "", cfg)
	assert.Equal(t, RoleBranch, role)
	assert.Equal(t, 3, prio)
}

func TestClassify_ExplicitRolesSkipDetection(t *testing.T) {
	// An explicit tag wins even when the name carries a display token.
	docs := []Document{
		{Name: "tba-export", Role: RoleBranch, Priority: 2},
	}
	got := Classify(docs, nil, DefaultDetectConfig())
	require.Len(t, got.Branches, 1)
	assert.Nil(t, got.Display)
	assert.Equal(t, 2, got.Branches[0].Priority)
}

func TestClassify_OrdersBranchesByPriority(t *testing.T) {
	docs := []Document{
		{Name: "TonKho_Lanh", Role: RoleAuto},
		{Name: "TonKho_7BC", Role: RoleAuto},
		{Name: "TonKho_64TDH", Role: RoleAuto},
		{Name: "TonKho_TBA", Role: RoleAuto},
	}
	got := Classify(docs, nil, DefaultDetectConfig())

	require.NotNil(t, got.Display)
	assert.Equal(t, "TonKho_TBA", got.Display.Name)
	require.Len(t, got.Branches, 3)
	assert.Equal(t, "TonKho_64TDH", got.Branches[0].Name)
	assert.Equal(t, "TonKho_7BC", got.Branches[1].Name)
	assert.Equal(t, "TonKho_Lanh", got.Branches[2].Name)
}

func TestClassify_LastDisplayWins(t *testing.T) {
	docs := []Document{
		{Name: "old-tba", Role: RoleDisplay},
		{Name: "new-tba", Role: RoleDisplay},
	}
	got := Classify(docs, nil, DefaultDetectConfig())
	require.NotNil(t, got.Display)
	assert.Equal(t, "new-tba", got.Display.Name)
	assert.Equal(t, 1, got.Replaced)
}

func TestClassify_ContentLabelLookup(t *testing.T) {
	docs := []Document{{Name: "export-a", Role: RoleAuto}}
	labels := map[string]string{"export-a": "Showroom TBA"}
	got := Classify(docs, labels, DefaultDetectConfig())
	require.NotNil(t, got.Display)
	assert.Empty(t, got.Branches)
}
