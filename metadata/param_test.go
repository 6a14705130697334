package metadata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzl/go-mdparam/memstore"
	"github.com/zzl/go-mdparam/metadata"
)

func newAttached(t *testing.T) (*metadata.Module, *memstore.Store, *metadata.ParameterDefinition) {
	t.Helper()
	store := memstore.New()
	module := metadata.NewModule("Test", store)
	method := module.AddMethod("Run", module.NewTypeReference("System", "Void"))
	p := metadata.NewParameterDefinition("value", metadata.ParamNone, module.NewTypeReference("System", "Int32"))
	method.AddParameter(p)
	return module, store, p
}

func TestDetachedParameter(t *testing.T) {
	p := metadata.NewParameterDefinition("x", metadata.ParamNone, &metadata.TypeReference{Namespace: "System", Name: "Int32"})

	assert.False(t, p.IsIn())
	assert.True(t, p.MetadataToken().IsZero())
	assert.Equal(t, metadata.TokenParam, p.MetadataToken().TokenType())

	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)

	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Nil(t, constant)

	hasAttrs, err := p.HasCustomAttributes()
	require.NoError(t, err)
	assert.False(t, hasAttrs)

	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)

	hasMarshal, err := p.HasMarshalInfo()
	require.NoError(t, err)
	assert.False(t, hasMarshal)

	mi, err := p.MarshalInfo()
	require.NoError(t, err)
	assert.Nil(t, mi)
}

func TestModuleWithoutImageIsDetached(t *testing.T) {
	module := metadata.NewModule("Test", memstore.NewDetached())
	p := metadata.NewParameterDefinition("x", metadata.ParamNone, module.NewTypeReference("System", "Int32"))

	assert.False(t, module.HasImage())
	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)
}

func TestConstantResolvedAfterLateAttach(t *testing.T) {
	module := metadata.NewModule("Test", nil)
	p := metadata.NewParameterDefinition("x", metadata.ParamNone, module.NewTypeReference("System", "Int32"))

	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)

	store := memstore.New()
	store.SetConstant(p.MetadataToken(), int32(7))
	module.Attach(store)

	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, int32(7), constant)
}

func TestConstantResolvedOnce(t *testing.T) {
	_, store, p := newAttached(t)
	store.SetConstant(p.MetadataToken(), int32(42))

	for i := 0; i < 3; i++ {
		constant, err := p.Constant()
		require.NoError(t, err)
		assert.Equal(t, int32(42), constant)
	}
	assert.Equal(t, 1, store.Calls(memstore.OpResolveConstant))

	store.SetConstant(p.MetadataToken(), int32(1))
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, int32(42), constant)
}

func TestAbsentConstantIsCached(t *testing.T) {
	_, store, p := newAttached(t)

	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)

	hasConstant, err = p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)
	assert.Equal(t, 1, store.Calls(memstore.OpResolveConstant))

	p.SetConstant(5)
	hasConstant, err = p.HasConstant()
	require.NoError(t, err)
	assert.True(t, hasConstant)
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, 5, constant)
	assert.Equal(t, 1, store.Calls(memstore.OpResolveConstant))
}

func TestSetConstantOverridesStore(t *testing.T) {
	_, store, p := newAttached(t)
	store.SetConstant(p.MetadataToken(), "from store")

	p.SetConstant("direct")
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, "direct", constant)
	assert.Zero(t, store.Calls(memstore.OpResolveConstant))
}

func TestSetConstantNil(t *testing.T) {
	_, _, p := newAttached(t)

	p.SetConstant(nil)
	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.True(t, hasConstant)
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Nil(t, constant)
}

func TestSetHasConstantFalse(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memstore.Store, *metadata.ParameterDefinition)
	}{
		{"unresolved with stored constant", func(s *memstore.Store, p *metadata.ParameterDefinition) {
			s.SetConstant(p.MetadataToken(), int32(3))
		}},
		{"resolved from store", func(s *memstore.Store, p *metadata.ParameterDefinition) {
			s.SetConstant(p.MetadataToken(), int32(3))
			_, _ = p.Constant()
		}},
		{"directly set", func(s *memstore.Store, p *metadata.ParameterDefinition) {
			p.SetConstant(int32(3))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, store, p := newAttached(t)
			tt.setup(store, p)

			p.SetHasConstant(false)
			hasConstant, err := p.HasConstant()
			require.NoError(t, err)
			assert.False(t, hasConstant)
			constant, err := p.Constant()
			require.NoError(t, err)
			assert.Nil(t, constant)
		})
	}
}

func TestSetHasConstantTrueIsNoop(t *testing.T) {
	_, store, p := newAttached(t)
	store.SetConstant(p.MetadataToken(), int32(9))

	p.SetHasConstant(true)
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, int32(9), constant)
}

func TestConstantFailureIsNotCached(t *testing.T) {
	_, store, p := newAttached(t)
	boom := errors.New("bad blob")
	store.SetConstant(p.MetadataToken(), int32(1))
	store.Fail(memstore.OpResolveConstant, boom)

	_, err := p.HasConstant()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), p.MetadataToken().String())

	_, err = p.Constant()
	require.ErrorIs(t, err, boom)

	store.Fail(memstore.OpResolveConstant, nil)
	constant, err := p.Constant()
	require.NoError(t, err)
	assert.Equal(t, int32(1), constant)
	assert.Equal(t, 3, store.Calls(memstore.OpResolveConstant))
}

func TestCustomAttributesMaterializedOnce(t *testing.T) {
	module, store, p := newAttached(t)
	a := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute"))
	b := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "BAttribute"), int32(1))
	c := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "CAttribute"))
	store.SetCustomAttributes(p.MetadataToken(), a, b)

	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Same(t, a, attrs[0])
	assert.Same(t, b, attrs[1])

	store.SetCustomAttributes(p.MetadataToken(), a, b, c)
	again, err := p.CustomAttributes()
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Same(t, &attrs[0], &again[0])
	assert.Equal(t, 1, store.Calls(memstore.OpCustomAttributes))
}

func TestCustomAttributesKeepDuplicates(t *testing.T) {
	module, store, p := newAttached(t)
	a := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute"))
	store.SetCustomAttributes(p.MetadataToken(), a, a)

	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Len(t, attrs, 2)
}

func TestHasCustomAttributesProbesUntilMaterialized(t *testing.T) {
	module, store, p := newAttached(t)
	store.SetCustomAttributes(p.MetadataToken(), metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute")))

	has, err := p.HasCustomAttributes()
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, store.Calls(memstore.OpHasCustomAttributes))
	assert.Zero(t, store.Calls(memstore.OpCustomAttributes))

	_, err = p.CustomAttributes()
	require.NoError(t, err)
	has, err = p.HasCustomAttributes()
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, store.Calls(memstore.OpHasCustomAttributes))
}

func TestEmptyMaterializedAttributesAreNotRefetched(t *testing.T) {
	module, store, p := newAttached(t)

	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Empty(t, attrs)

	store.SetCustomAttributes(p.MetadataToken(), metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute")))
	has, err := p.HasCustomAttributes()
	require.NoError(t, err)
	assert.False(t, has)
	attrs, err = p.CustomAttributes()
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestCustomAttributesFailureIsNotCached(t *testing.T) {
	module, store, p := newAttached(t)
	boom := errors.New("io")
	store.SetCustomAttributes(p.MetadataToken(), metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute")))
	store.Fail(memstore.OpCustomAttributes, boom)

	_, err := p.CustomAttributes()
	require.ErrorIs(t, err, boom)

	store.Fail(memstore.OpCustomAttributes, nil)
	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Len(t, attrs, 1)
}

func TestAddCustomAttribute(t *testing.T) {
	module, store, p := newAttached(t)
	a := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute"))
	b := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "BAttribute"))
	store.SetCustomAttributes(p.MetadataToken(), a)

	require.NoError(t, p.AddCustomAttribute(b))
	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Equal(t, []*metadata.CustomAttribute{a, b}, attrs)
}

func TestAddCustomAttributeLeavesCallerSliceAlone(t *testing.T) {
	module, _, p := newAttached(t)
	a := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute"))
	b := metadata.NewCustomAttribute(module.NewTypeReference("Sample", "BAttribute"))
	mine := make([]*metadata.CustomAttribute, 1, 4)
	mine[0] = a
	p.SetCustomAttributes(mine)

	require.NoError(t, p.AddCustomAttribute(b))
	assert.Nil(t, mine[:2][1])
	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Equal(t, []*metadata.CustomAttribute{a, b}, attrs)
}

func TestSetCustomAttributesBypassesStore(t *testing.T) {
	module, store, p := newAttached(t)
	store.SetCustomAttributes(p.MetadataToken(), metadata.NewCustomAttribute(module.NewTypeReference("Sample", "AAttribute")))

	p.SetCustomAttributes(nil)
	has, err := p.HasCustomAttributes()
	require.NoError(t, err)
	assert.False(t, has)
	attrs, err := p.CustomAttributes()
	require.NoError(t, err)
	assert.Empty(t, attrs)
	assert.Zero(t, store.Calls(memstore.OpCustomAttributes))
	assert.Zero(t, store.Calls(memstore.OpHasCustomAttributes))
}

func TestMarshalInfoResolvedOnce(t *testing.T) {
	_, store, p := newAttached(t)
	mi := metadata.NewMarshalInfo(metadata.NativeTypeLPWStr)
	store.SetMarshalInfo(p.MetadataToken(), mi)

	has, err := p.HasMarshalInfo()
	require.NoError(t, err)
	assert.True(t, has)

	got, err := p.MarshalInfo()
	require.NoError(t, err)
	assert.Same(t, mi, got)

	store.SetMarshalInfo(p.MetadataToken(), metadata.NewMarshalInfo(metadata.NativeTypeBStr))
	got, err = p.MarshalInfo()
	require.NoError(t, err)
	assert.Same(t, mi, got)
	assert.Equal(t, 1, store.Calls(memstore.OpMarshalInfo))

	has, err = p.HasMarshalInfo()
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, store.Calls(memstore.OpHasMarshalInfo))
}

func TestAbsentMarshalInfoIsCached(t *testing.T) {
	_, store, p := newAttached(t)

	mi, err := p.MarshalInfo()
	require.NoError(t, err)
	assert.Nil(t, mi)

	store.SetMarshalInfo(p.MetadataToken(), metadata.NewMarshalInfo(metadata.NativeTypeBStr))
	has, err := p.HasMarshalInfo()
	require.NoError(t, err)
	assert.False(t, has)
	assert.Zero(t, store.Calls(memstore.OpHasMarshalInfo))
}

func TestSetMarshalInfoIsAuthoritative(t *testing.T) {
	_, store, p := newAttached(t)
	store.SetMarshalInfo(p.MetadataToken(), metadata.NewMarshalInfo(metadata.NativeTypeBStr))

	direct := metadata.NewMarshalInfo(metadata.NativeTypeLPStr)
	p.SetMarshalInfo(direct)
	got, err := p.MarshalInfo()
	require.NoError(t, err)
	assert.Same(t, direct, got)
	assert.Zero(t, store.Calls(memstore.OpMarshalInfo))

	p.SetMarshalInfo(nil)
	has, err := p.HasMarshalInfo()
	require.NoError(t, err)
	assert.False(t, has)
	got, err = p.MarshalInfo()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarshalInfoFailureIsNotCached(t *testing.T) {
	_, store, p := newAttached(t)
	boom := errors.New("truncated")
	store.SetMarshalInfo(p.MetadataToken(), metadata.NewMarshalInfo(metadata.NativeTypeBStr))
	store.Fail(memstore.OpMarshalInfo, boom)
	store.Fail(memstore.OpHasMarshalInfo, boom)

	_, err := p.HasMarshalInfo()
	require.ErrorIs(t, err, boom)
	_, err = p.MarshalInfo()
	require.ErrorIs(t, err, boom)

	store.Fail(memstore.OpMarshalInfo, nil)
	mi, err := p.MarshalInfo()
	require.NoError(t, err)
	require.NotNil(t, mi)
	assert.Equal(t, metadata.NativeTypeBStr, mi.NativeType)
}

func TestFlagAccessorsAreIndependent(t *testing.T) {
	_, store, p := newAttached(t)
	store.SetConstant(p.MetadataToken(), int32(1))

	p.SetOptional(true)
	assert.True(t, p.IsOptional())
	assert.False(t, p.IsIn())
	assert.False(t, p.IsOut())
	assert.False(t, p.HasDefault())

	p.SetIn(true)
	p.SetOut(true)
	assert.True(t, p.IsIn())
	assert.True(t, p.IsOut())
	assert.Equal(t, metadata.ParamIn|metadata.ParamOut|metadata.ParamOptional, p.Attributes())

	p.SetHasDefault(true)
	p.SetOptional(false)
	assert.False(t, p.IsOptional())
	assert.True(t, p.HasDefault())
	assert.True(t, p.IsIn())

	p.SetLcid(true)
	p.SetReturnValue(true)
	p.SetHasFieldMarshal(true)
	assert.True(t, p.IsLcid())
	assert.True(t, p.IsReturnValue())
	assert.True(t, p.HasFieldMarshal())

	assert.Zero(t, store.Calls(memstore.OpResolveConstant))
}

func TestHasDefaultFlagDoesNotImplyConstant(t *testing.T) {
	_, _, p := newAttached(t)
	p.SetHasDefault(true)

	hasConstant, err := p.HasConstant()
	require.NoError(t, err)
	assert.False(t, hasConstant)
	assert.True(t, p.HasDefault())
}

func TestParameterIdentity(t *testing.T) {
	module, _, p := newAttached(t)
	second := metadata.NewParameterDefinition("other", metadata.ParamOut, module.NewTypeReference("System", "String"))
	method := module.Methods()[0]
	method.AddParameter(second)

	assert.Equal(t, uint32(1), p.MetadataToken().RID())
	assert.Equal(t, uint32(2), second.MetadataToken().RID())
	assert.Equal(t, 0, p.Index())
	assert.Equal(t, 2, second.Sequence())
	assert.Same(t, method, module.Method(second.Method()))
	assert.Same(t, p, p.Resolve())

	token := p.MetadataToken()
	p.SetName("renamed")
	p.SetConstant(int32(2))
	assert.Equal(t, token, p.MetadataToken())
	assert.Equal(t, "renamed", p.String())
}

func TestReadParameterKeepsRID(t *testing.T) {
	module := metadata.NewModule("Test", nil)
	p := module.ReadParameter(10, "x", metadata.ParamIn, module.NewTypeReference("System", "Int32"))
	next := metadata.NewParameterDefinition("y", metadata.ParamNone, module.NewTypeReference("System", "Int32"))

	assert.Equal(t, metadata.NewMetadataToken(metadata.TokenParam, 10), p.MetadataToken())
	assert.Equal(t, uint32(11), next.MetadataToken().RID())
}

func TestMissingParameterTypePanics(t *testing.T) {
	assert.Panics(t, func() {
		metadata.NewParameterDefinition("x", metadata.ParamNone, nil)
	})

	var p metadata.ParameterDefinition
	assert.Panics(t, func() {
		_, _ = p.HasConstant()
	})
	assert.Panics(t, func() {
		_, _ = p.CustomAttributes()
	})
	assert.Panics(t, func() {
		_, _ = p.MarshalInfo()
	})
}

func TestUntypedParameterPanicsAfterDirectWrites(t *testing.T) {
	var p metadata.ParameterDefinition
	assert.Panics(t, func() { p.SetConstant(int32(1)) })
	assert.Panics(t, func() { p.SetHasConstant(false) })
	assert.Panics(t, func() { p.SetCustomAttributes(nil) })
	assert.Panics(t, func() { p.SetMarshalInfo(nil) })
	assert.Panics(t, func() { _, _ = p.HasCustomAttributes() })
	assert.Panics(t, func() { _, _ = p.HasMarshalInfo() })
	assert.Panics(t, func() { _, _ = p.Constant() })
}
