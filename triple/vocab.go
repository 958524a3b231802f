package triple

// Namespaces
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// RDF vocabulary
const (
	RDFType       = RDFNamespace + "type"
	RDFLangString = RDFNamespace + "langString"
)

// RDFS vocabulary
const (
	RDFSSubClassOf    = RDFSNamespace + "subClassOf"
	RDFSSubPropertyOf = RDFSNamespace + "subPropertyOf"
	RDFSDomain        = RDFSNamespace + "domain"
	RDFSRange         = RDFSNamespace + "range"
)

// OWL vocabulary
const (
	OWLSymmetricProperty  = OWLNamespace + "SymmetricProperty"
	OWLTransitiveProperty = OWLNamespace + "TransitiveProperty"
	OWLInverseOf          = OWLNamespace + "inverseOf"
	OWLSameAs             = OWLNamespace + "sameAs"
)

// XSD datatypes
const (
	XSDString  = XSDNamespace + "string"
	XSDInteger = XSDNamespace + "integer"
	XSDInt     = XSDNamespace + "int"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
	XSDFloat   = XSDNamespace + "float"
	XSDBoolean = XSDNamespace + "boolean"
)

// StandardPrefixes are the prefixes every serializer and rule parser knows.
var StandardPrefixes = map[string]string{
	"rdf":  RDFNamespace,
	"rdfs": RDFSNamespace,
	"owl":  OWLNamespace,
	"xsd":  XSDNamespace,
}

// TypeIRI is the rdf:type predicate as a term.
var TypeIRI = NewIRI(RDFType)
