package expression

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/xerrors"
)

// ErrInvalidExpression is returned when an infix expression cannot be parsed.
var ErrInvalidExpression = xerrors.New("invalid expression")

var (
	isOperandChar = regexp.MustCompile(`^[a-zA-Z0-9_\.]$`).MatchString
	isNumber      = regexp.MustCompile(`^[0-9]+$`).MatchString
	isName        = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\.]*$`).MatchString
)

// Parse builds an expression from its infix form, e.g. "a * (b + 3) - 5".
// Integer literals become scalars and identifiers become named secrets: the
// same identifier always maps to the same Secret node. The secrets are also
// returned by name.
//
// '+' and '-' are binary only ("-1" or "3*(-2)" are invalid).
func Parse(infix string) (Expression, map[string]*Secret, error) {
	postfix, err := infixToPostfix(infix)
	if err != nil {
		return nil, nil, err
	}

	secrets := map[string]*Secret{}
	stack := []Expression{}

	for _, token := range postfix {
		switch token {
		case "+", "-", "*":
			if len(stack) < 2 {
				return nil, nil, xerrors.Errorf("operator %s misses an operand: %w", token, ErrInvalidExpression)
			}
			left, right := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]

			var res Expression
			switch token {
			case "+":
				res = NewAdd(left, right)
			case "-":
				res = NewSub(left, right)
			default:
				res = NewMult(left, right)
			}
			stack = append(stack, res)
		default:
			operand, err := parseOperand(token, secrets)
			if err != nil {
				return nil, nil, err
			}
			stack = append(stack, operand)
		}
	}

	if len(stack) != 1 {
		return nil, nil, xerrors.Errorf("dangling operands in %q: %w", infix, ErrInvalidExpression)
	}

	return stack[0], secrets, nil
}

func parseOperand(token string, secrets map[string]*Secret) (Expression, error) {
	if isNumber(token) {
		v, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, xerrors.Errorf("bad scalar %s: %w", token, ErrInvalidExpression)
		}
		return NewScalar(v), nil
	}

	if !isName(token) {
		return nil, xerrors.Errorf("bad identifier %s: %w", token, ErrInvalidExpression)
	}

	s, ok := secrets[token]
	if !ok {
		s = NamedSecret(token)
		secrets[token] = s
	}
	return s, nil
}

// tokenize splits infix into operands, operators and parentheses. Whitespace
// separates tokens, and two operands may not follow each other.
func tokenize(infix string) ([]string, error) {
	tokens := []string{}

	curOperand := ""
	flush := func() error {
		if curOperand == "" {
			return nil
		}
		if len(tokens) > 0 && isOperandChar(tokens[len(tokens)-1][:1]) {
			return xerrors.Errorf("missing operator before %s in %q: %w",
				curOperand, infix, ErrInvalidExpression)
		}
		tokens = append(tokens, curOperand)
		curOperand = ""
		return nil
	}

	for _, char := range infix {
		opchar := string(char)
		// operands are accumulated until the next operator, parenthesis or space
		if isOperandChar(opchar) {
			curOperand += opchar
			continue
		}

		err := flush()
		if err != nil {
			return nil, err
		}

		switch {
		case unicode.IsSpace(char):
		case strings.ContainsRune("+-*()", char):
			tokens = append(tokens, opchar)
		default:
			return nil, xerrors.Errorf("illegal character %q in %q: %w", char, infix, ErrInvalidExpression)
		}
	}

	err := flush()
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func infixToPostfix(infix string) ([]string, error) {
	tokens, err := tokenize(infix)
	if err != nil {
		return nil, err
	}

	s := stack{}
	postfix := []string{}

	for _, token := range tokens {
		switch token {
		case "(":
			s.Push(token)
		case ")":
			for !s.IsEmpty() && s.Top() != "(" {
				postfix = append(postfix, s.Top())
				s.Pop()
			}
			if !s.Pop() {
				return nil, xerrors.Errorf("unbalanced ')' in %q: %w", infix, ErrInvalidExpression)
			}
		case "+", "-", "*":
			for !s.IsEmpty() && prec(token) <= prec(s.Top()) {
				postfix = append(postfix, s.Top())
				s.Pop()
			}
			s.Push(token)
		default:
			postfix = append(postfix, token)
		}
	}

	for !s.IsEmpty() {
		if s.Top() == "(" {
			return nil, xerrors.Errorf("unbalanced '(' in %q: %w", infix, ErrInvalidExpression)
		}
		postfix = append(postfix, s.Top())
		s.Pop()
	}

	return postfix, nil
}

type stack []string

// IsEmpty checks if the stack is empty
func (st *stack) IsEmpty() bool {
	return len(*st) == 0
}

// Push a new value onto the stack
func (st *stack) Push(str string) {
	*st = append(*st, str)
}

// Pop removes the top element of the stack. Returns false if the stack is empty.
func (st *stack) Pop() bool {
	if st.IsEmpty() {
		return false
	}
	*st = (*st)[:len(*st)-1]
	return true
}

// Top returns the top element of the stack, or "" if the stack is empty.
func (st *stack) Top() string {
	if st.IsEmpty() {
		return ""
	}
	return (*st)[len(*st)-1]
}

// prec returns the precedence of an operator
func prec(s string) int {
	switch s {
	case "*":
		return 2
	case "+", "-":
		return 1
	default:
		return -1
	}
}
