package dbmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	script := "-- seed\nINSERT INTO a VALUES (1);\n\n  ;INSERT INTO a VALUES (2);\n"
	assert.Equal(t, []string{"INSERT INTO a VALUES (1)", "INSERT INTO a VALUES (2)"}, SplitStatements(script))
	assert.Empty(t, SplitStatements("  \n-- nothing\n"))
}

func TestParseObjectStatementsWithoutRoutines(t *testing.T) {
	script := "CREATE VIEW a AS SELECT 1;\nCREATE VIEW b AS SELECT 2"
	assert.Equal(t, []string{"CREATE VIEW a AS SELECT 1", "CREATE VIEW b AS SELECT 2"}, ParseObjectStatements(script))
}

func TestParseObjectStatementsWithRoutines(t *testing.T) {
	script := `-- objects
CREATE OR REPLACE VIEW v AS SELECT 1;

DELIMITER //

CREATE FUNCTION f() RETURNS INT
BEGIN
    RETURN 1;
END //

-- procedures
CREATE PROCEDURE p()
BEGIN
    UPDATE t SET x = 1;
END //

DELIMITER ;
`
	got := ParseObjectStatements(script)
	assert.Len(t, got, 3)
	assert.Equal(t, "CREATE OR REPLACE VIEW v AS SELECT 1", got[0])
	assert.Equal(t, "CREATE FUNCTION f() RETURNS INT\nBEGIN\n    RETURN 1;\nEND", got[1])
	assert.Equal(t, "CREATE PROCEDURE p()\nBEGIN\n    UPDATE t SET x = 1;\nEND", got[2])
}
