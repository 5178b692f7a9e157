package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperationDecodesAllFields(t *testing.T) {
	desc, err := ParseOperation("[操作：click，对象：8，内容：]")
	require.NoError(t, err)

	assert.Equal(t, ActionClick, desc.Action)
	assert.Equal(t, "8", desc.Target)
	assert.Equal(t, "", desc.Content)
}

func TestParseOperationKeepsCommasInContent(t *testing.T) {
	desc, err := ParseOperation("[操作：input，对象：3，内容：北京，海淀区]")
	require.NoError(t, err)

	assert.Equal(t, ActionInput, desc.Action)
	assert.Equal(t, "3", desc.Target)
	assert.Equal(t, "北京，海淀区", desc.Content)
}

func TestParseOperationAllowsMissingTargetAndContent(t *testing.T) {
	desc, err := ParseOperation("[操作：wait]")
	require.NoError(t, err)

	assert.Equal(t, ActionWait, desc.Action)
	assert.Empty(t, desc.Target)
	assert.Empty(t, desc.Content)
}

func TestParseOperationRejectsMissingActionField(t *testing.T) {
	_, err := ParseOperation("[对象：8，内容：hello]")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseOperationRejectsUnknownAction(t *testing.T) {
	_, err := ParseOperation("[操作：teleport，对象：8，内容：]")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseOperationRejectsPlainText(t *testing.T) {
	_, err := ParseOperation("click the submit button")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseOperationsExtractsSequenceFromProse(t *testing.T) {
	reply := `I will fill in the form and submit it.

[操作：input，对象：3，内容：hello]
[操作：click，对象：8，内容：]

That should complete the search.`

	ops, err := ParseOperations(reply)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, ActionInput, ops[0].Action)
	assert.Equal(t, "3", ops[0].Target)
	assert.Equal(t, "hello", ops[0].Content)
	assert.Equal(t, ActionClick, ops[1].Action)
}

func TestParseOperationsIgnoresNonOperationBrackets(t *testing.T) {
	ops, err := ParseOperations("See [1] for details. [操作：done，对象：，内容：finished]")
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.Equal(t, ActionDone, ops[0].Action)
	assert.Equal(t, "finished", ops[0].Content)
}

func TestParseOperationsEmptyReply(t *testing.T) {
	ops, err := ParseOperations("I could not decide on an action.")
	require.NoError(t, err)
	assert.Empty(t, ops)
}
