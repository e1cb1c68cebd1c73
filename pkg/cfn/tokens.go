package cfn

// Token is a late-bound template value. CloudFormation resolves tokens at
// deploy time, so within this library they are opaque JSON/YAML fragments
// such as {"Ref": "MySecret"} or {"Fn::GetAtt": ["MyKey", "Arn"]}.
type Token map[string]interface{}

// Ref returns a Ref intrinsic for the given logical ID or pseudo parameter
// (for example "AWS::Region").
func Ref(logicalID string) Token {
	return Token{"Ref": logicalID}
}

// GetAtt returns an Fn::GetAtt intrinsic for an attribute of a resource.
func GetAtt(logicalID, attribute string) Token {
	return Token{"Fn::GetAtt": []string{logicalID, attribute}}
}

// Sub returns an Fn::Sub intrinsic over the given template string.
func Sub(template string) Token {
	return Token{"Fn::Sub": template}
}

// Join returns an Fn::Join intrinsic. Parts may mix plain strings and other
// tokens; CloudFormation concatenates them with the delimiter at deploy time.
func Join(delimiter string, parts ...interface{}) Token {
	return Token{"Fn::Join": []interface{}{delimiter, parts}}
}

// IsRef reports whether the token is a Ref to the given logical ID.
func IsRef(v interface{}, logicalID string) bool {
	t, ok := v.(Token)
	if !ok {
		return false
	}
	ref, ok := t["Ref"].(string)
	return ok && ref == logicalID
}
