package recipe

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecordTestSuite covers Record and ResultSet behaviour
type RecordTestSuite struct {
	suite.Suite
	record Record
}

func TestRecordTestSuite(t *testing.T) {
	suite.Run(t, new(RecordTestSuite))
}

func (suite *RecordTestSuite) SetupTest() {
	suite.record = NewRecord(
		"Shakshuka",
		"https://img.example.com/shakshuka.jpg",
		"Serious Eats",
		[]string{"4 eggs", "1 can tomatoes", "1 onion"},
		"https://www.seriouseats.com/shakshuka",
		1234.5678,
	)
}

func (suite *RecordTestSuite) TestAccessors() {
	suite.Run("NewRecord_ShouldExposeFieldsUnchanged", func() {
		r := suite.record

		assert.Equal(suite.T(), "Shakshuka", r.Title())
		assert.Equal(suite.T(), "https://img.example.com/shakshuka.jpg", r.ImageURL())
		assert.Equal(suite.T(), "Serious Eats", r.SourceName())
		assert.Equal(suite.T(), []string{"4 eggs", "1 can tomatoes", "1 onion"}, r.IngredientLines())
		assert.Equal(suite.T(), "https://www.seriouseats.com/shakshuka", r.DetailURL())
		assert.Equal(suite.T(), 1234.5678, r.Calories())
		assert.Equal(suite.T(), "1234.6", r.FormattedCalories())
	})

	suite.Run("CallerSlices_ShouldNotAliasRecord", func() {
		// Arrange
		lines := []string{"salt"}
		r := NewRecord("t", "", "", lines, "", 1)

		// Act
		lines[0] = "pepper"
		got := r.IngredientLines()
		got[0] = "sugar"

		// Assert
		assert.Equal(suite.T(), []string{"salt"}, r.IngredientLines())
	})
}

func (suite *RecordTestSuite) TestJSON() {
	suite.Run("RoundTrip_ShouldPreserveEveryField", func() {
		data, err := json.Marshal(suite.record)
		require.NoError(suite.T(), err)
		assert.Contains(suite.T(), string(data), `"imageUrl":"https://img.example.com/shakshuka.jpg"`)

		var decoded Record
		require.NoError(suite.T(), json.Unmarshal(data, &decoded))
		assert.True(suite.T(), suite.record.Equal(decoded))
	})

	suite.Run("NilIngredients_ShouldMarshalAsEmptyArray", func() {
		data, err := json.Marshal(NewRecord("t", "", "", nil, "", 0))
		require.NoError(suite.T(), err)
		assert.Contains(suite.T(), string(data), `"ingredientLines":[]`)
	})
}

func (suite *RecordTestSuite) TestResultSet() {
	suite.Run("Empty_ShouldHaveNoRecords", func() {
		var set ResultSet
		assert.True(suite.T(), set.IsEmpty())
		assert.Equal(suite.T(), 0, set.Len())
		assert.Nil(suite.T(), set.Records())
		assert.True(suite.T(), set.Equal(NewResultSet()))
	})

	suite.Run("Records_ShouldKeepOrder", func() {
		other := NewRecord("Congee", "", "", nil, "", 200)
		set := NewResultSet(suite.record, other)

		assert.Equal(suite.T(), 2, set.Len())
		assert.Equal(suite.T(), "Shakshuka", set.Records()[0].Title())
		assert.Equal(suite.T(), "Congee", set.Records()[1].Title())
		assert.False(suite.T(), set.Equal(NewResultSet(other, suite.record)))
	})
}

func TestFormatCalories(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 1234.5678, want: "1234.6"},
		{in: 523.1, want: "523.10"},
		{in: 98.765432, want: "98.765"},
		{in: 12345.6, want: "12346"},
		{in: 123456.7, want: "1.2346e+5"},
		{in: 99999.7, want: "1.0000e+5"},
		{in: 9.999996, want: "10.000"},
		{in: 0.5, want: "0.50000"},
		{in: 0, want: "0.0000"},
		{in: math.Copysign(0, -1), want: "0.0000"},
		{in: 0.00000012345, want: "1.2345e-7"},
		{in: -42.5, want: "-42.500"},
		{in: math.NaN(), want: "NaN"},
		{in: math.Inf(1), want: "Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCalories(tt.in))
		})
	}
}
