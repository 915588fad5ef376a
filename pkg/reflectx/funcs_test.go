package reflectx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedFunc func(string) string

func sampleFunc(string) string { return "" }

type sampleResult interface{ Name() string }

type sampleImpl struct{}

func (sampleImpl) Name() string { return "sample" }

func TestIsFunction(t *testing.T) {
	assert.True(t, IsFunction(sampleFunc))
	assert.True(t, IsFunction(func() {}))
	assert.False(t, IsFunction(nil))
	assert.False(t, IsFunction("not a function"))
	assert.False(t, IsFunction(42))
}

func TestFunctionName(t *testing.T) {
	assert.Equal(t, "sampleFunc", FunctionName(sampleFunc))
	assert.Equal(t, "", FunctionName(nil))

	var nf namedFunc = sampleFunc
	assert.Equal(t, "reflectx.namedFunc", FunctionName(nf))
}

func TestIsRefinedType(t *testing.T) {
	assert.True(t, IsRefinedType[string](reflect.TypeOf("")))
	assert.False(t, IsRefinedType[string](reflect.TypeOf(1)))
	assert.True(t, IsRefinedType[map[string]any](reflect.TypeOf(map[string]any{})))
}

func TestResultImplements(t *testing.T) {
	returnsImpl := func() sampleImpl { return sampleImpl{} }
	returnsIface := func() sampleResult { return sampleImpl{} }
	returnsString := func() string { return "" }

	assert.True(t, ResultImplements[sampleResult](returnsImpl))
	assert.True(t, ResultImplements[sampleResult](returnsIface))
	assert.False(t, ResultImplements[sampleResult](returnsString))
	assert.False(t, ResultImplements[sampleResult](nil))
	assert.False(t, ResultImplements[sampleResult]("not a function"))
}
